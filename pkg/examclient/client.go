// Package examclient 考试系统的 Go 客户端：显式会话、按资源缓存、传输层统一解码错误
package examclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"matrix_exam_backend/internal/model"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
	Session *Session
	Cache   *Cache
}

// New session 或 cache 为 nil 时使用默认值
func New(baseURL string, session *Session, cache *Cache) *Client {
	if session == nil {
		session = NewSession()
	}
	if cache == nil {
		cache = NewCache(0, nil)
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 30 * time.Second},
		Session: session,
		Cache:   cache,
	}
}

// do 发送请求并解析统一响应，非 2xx 解码为 *Error，401 清空会话
func (c *Client) do(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, &Error{Kind: KindValidation, Message: "encode request body", Err: err}
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Message: "build request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Status: resp.StatusCode, Message: "read response body", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := decodeError(resp.StatusCode, raw)
		if apiErr.Kind == KindAuth {
			c.Session.Clear()
			c.Cache.Clear()
		}
		return nil, apiErr
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &Error{Kind: KindServer, Status: resp.StatusCode, Message: "malformed response", Err: err}
	}
	return env.Data, nil
}

func decodeInto[T any](data json.RawMessage) (T, error) {
	var out T
	if len(data) == 0 || string(data) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, &Error{Kind: KindServer, Message: "decode response data", Err: err}
	}
	return out, nil
}

// query 带缓存的读
func query[T any](ctx context.Context, c *Client, key Key, path string) (T, error) {
	if data, ok := c.Cache.Get(key); ok {
		return decodeInto[T](data)
	}
	data, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		var zero T
		return zero, err
	}
	out, err := decodeInto[T](data)
	if err != nil {
		return out, err
	}
	c.Cache.Set(key, data)
	return out, nil
}

// mutate 写操作，成功后按规则失效
func mutate[T any](ctx context.Context, c *Client, mutation string, id uint, method, path string, body any) (T, error) {
	data, err := c.do(ctx, method, path, body)
	if err != nil {
		var zero T
		return zero, err
	}
	c.Cache.Invalidate(mutation, id)
	return decodeInto[T](data)
}

type LoginResponse struct {
	Token     string    `json:"token"`
	Type      string    `json:"type"`
	UserID    uint      `json:"userId"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// Login 成功后初始化会话并清空旧缓存
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	data, err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	resp, err := decodeInto[LoginResponse](data)
	if err != nil {
		return nil, err
	}
	c.Cache.Clear()
	c.Session.Init(resp.Token, resp.Email, resp.Role)
	return &resp, nil
}

func (c *Client) Logout() {
	c.Session.Clear()
	c.Cache.Clear()
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	data, err := c.do(ctx, http.MethodPost, "/api/auth/register", req)
	if err != nil {
		return nil, err
	}
	user, err := decodeInto[model.User](data)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) Me(ctx context.Context) (*model.User, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/auth/me", nil)
	if err != nil {
		return nil, err
	}
	user, err := decodeInto[model.User](data)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

type StartExamRequest struct {
	ExamID   uint `json:"examId"`
	MatrixID uint `json:"matrixId,omitempty"`
}

type SubmitAnswerRequest struct {
	SessionID        uint    `json:"sessionId"`
	QuestionID       uint    `json:"questionId"`
	SelectedOptionID *uint   `json:"selectedOptionId,omitempty"`
	TextAnswer       *string `json:"textAnswer,omitempty"`
}

func (c *Client) StartExam(ctx context.Context, req StartExamRequest) (*model.ExamSessionResponse, error) {
	resp, err := mutate[model.ExamSessionResponse](ctx, c, MutStartExam, 0, http.MethodPost, "/api/exam-sessions/start", req)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ActiveSession 没有进行中的考试时返回 nil, nil
func (c *Client) ActiveSession(ctx context.Context) (*model.ExamSessionResponse, error) {
	return query[*model.ExamSessionResponse](ctx, c, Key{Resource: ResActiveSession}, "/api/exam-sessions/active")
}

func (c *Client) GetSession(ctx context.Context, sessionID uint) (*model.ExamSessionResponse, error) {
	resp, err := query[model.ExamSessionResponse](ctx, c, Key{Resource: ResSession, ID: sessionID},
		fmt.Sprintf("/api/exam-sessions/%d", sessionID))
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) SubmitAnswer(ctx context.Context, req SubmitAnswerRequest) (*model.StudentAnswerResponse, error) {
	resp, err := mutate[model.StudentAnswerResponse](ctx, c, MutSubmitAnswer, req.SessionID, http.MethodPost, "/api/exam-sessions/answer", req)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) SessionAnswers(ctx context.Context, sessionID uint) ([]model.StudentAnswerResponse, error) {
	return query[[]model.StudentAnswerResponse](ctx, c, Key{Resource: ResSessionAnswers, ID: sessionID},
		fmt.Sprintf("/api/exam-sessions/%d/answers", sessionID))
}

// SubmitExam 交卷并返回成绩
func (c *Client) SubmitExam(ctx context.Context, sessionID uint) (*model.ExamResultResponse, error) {
	resp, err := mutate[model.ExamResultResponse](ctx, c, MutSubmitExam, sessionID, http.MethodPost,
		fmt.Sprintf("/api/exam-sessions/%d/submit", sessionID), nil)
	if err != nil {
		// 超时的会话已被服务端自动交卷
		if ReasonOf(err) == "SESSION_EXPIRED" {
			c.Cache.Invalidate(MutSubmitExam, sessionID)
		}
		return nil, err
	}
	return &resp, nil
}

// ExpiredSubmission SESSION_EXPIRED 错误附带的数据
type ExpiredSubmission struct {
	SessionID uint `json:"sessionId"`
	ResultID  uint `json:"resultId"`
}

// ExpiredResultID 从 SESSION_EXPIRED 错误中取出自动交卷生成的成绩编号
func ExpiredResultID(err error) (uint, bool) {
	var e *Error
	if !errors.As(err, &e) || e.Reason != "SESSION_EXPIRED" {
		return 0, false
	}
	var data ExpiredSubmission
	if ok, derr := e.DecodeData(&data); !ok || derr != nil || data.ResultID == 0 {
		return 0, false
	}
	return data.ResultID, true
}

func (c *Client) MySessions(ctx context.Context) ([]model.ExamSessionResponse, error) {
	return query[[]model.ExamSessionResponse](ctx, c, Key{Resource: ResMySessions}, "/api/exam-sessions/my-sessions")
}

// MatrixQuestions 答题视图，不含答案
func (c *Client) MatrixQuestions(ctx context.Context, matrixID uint) ([]model.MatrixQuestionResponse, error) {
	return query[[]model.MatrixQuestionResponse](ctx, c, Key{Resource: ResMatrixQuestions, ID: matrixID},
		fmt.Sprintf("/api/matrices/%d/questions", matrixID))
}

type CreateMatrixRequest struct {
	ExamName           string     `json:"examName"`
	ExamDescription    string     `json:"examDescription,omitempty"`
	DurationMinutes    *int       `json:"durationMinutes,omitempty"`
	PassingMarks       *int       `json:"passingMarks,omitempty"`
	ExamDate           *time.Time `json:"examDate,omitempty"`
	MatrixName         string     `json:"matrixName"`
	MatrixDescription  string     `json:"matrixDescription,omitempty"`
	LessonIDs          []uint     `json:"lessonIds,omitempty"`
	LevelIDs           []uint     `json:"levelIds,omitempty"`
	QuestionsPerLesson *int       `json:"questionsPerLesson,omitempty"`
	EasyQuestions      *int       `json:"easyQuestions,omitempty"`
	MediumQuestions    *int       `json:"mediumQuestions,omitempty"`
	HardQuestions      *int       `json:"hardQuestions,omitempty"`
}

func (c *Client) CreateMatrixWithQuestions(ctx context.Context, req CreateMatrixRequest) (*model.MatrixWithQuestionsResponse, error) {
	resp, err := mutate[model.MatrixWithQuestionsResponse](ctx, c, MutCreateMatrix, 0, http.MethodPost,
		"/api/matrices/create-with-questions", req)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Matrices(ctx context.Context) ([]model.MatrixResponse, error) {
	return query[[]model.MatrixResponse](ctx, c, Key{Resource: ResMatrices}, "/api/matrices")
}

func (c *Client) DeleteMatrix(ctx context.Context, matrixID uint) error {
	_, err := mutate[json.RawMessage](ctx, c, MutDeleteMatrix, matrixID, http.MethodDelete,
		fmt.Sprintf("/api/matrices/%d", matrixID), nil)
	return err
}

func (c *Client) ResultBySession(ctx context.Context, sessionID uint) (*model.ExamResultResponse, error) {
	resp, err := query[model.ExamResultResponse](ctx, c, Key{Resource: ResExamResults, ID: sessionID},
		fmt.Sprintf("/api/exam-results/session/%d", sessionID))
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) MyResults(ctx context.Context) ([]model.ExamResultResponse, error) {
	return query[[]model.ExamResultResponse](ctx, c, Key{Resource: ResExamResults}, "/api/exam-results/my-results")
}

func (c *Client) SearchExams(ctx context.Context, name string) ([]model.Exam, error) {
	data, err := c.do(ctx, http.MethodGet, "/api/exams/search?name="+url.QueryEscape(name), nil)
	if err != nil {
		return nil, err
	}
	return decodeInto[[]model.Exam](data)
}

// Resource 普通 CRUD 资源的类型化访问
type Resource[T any] struct {
	c    *Client
	name string
	path string
}

func (r Resource[T]) List(ctx context.Context) ([]T, error) {
	return query[[]T](ctx, r.c, Key{Resource: r.name}, r.path)
}

func (r Resource[T]) Get(ctx context.Context, id uint) (*T, error) {
	out, err := query[T](ctx, r.c, Key{Resource: r.name, ID: id}, fmt.Sprintf("%s/%d", r.path, id))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r Resource[T]) Create(ctx context.Context, body any) (*T, error) {
	out, err := mutate[T](ctx, r.c, r.name+".create", 0, http.MethodPost, r.path, body)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Update 部分更新，body 中省略的字段保持不变
func (r Resource[T]) Update(ctx context.Context, id uint, body any) (*T, error) {
	out, err := mutate[T](ctx, r.c, r.name+".update", id, http.MethodPut, fmt.Sprintf("%s/%d", r.path, id), body)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r Resource[T]) Delete(ctx context.Context, id uint) error {
	_, err := mutate[json.RawMessage](ctx, r.c, r.name+".delete", id, http.MethodDelete, fmt.Sprintf("%s/%d", r.path, id), nil)
	return err
}

func (c *Client) Subjects() Resource[model.Subject] {
	return Resource[model.Subject]{c: c, name: ResSubjects, path: "/api/subjects"}
}

func (c *Client) Grades() Resource[model.Grade] {
	return Resource[model.Grade]{c: c, name: ResGrades, path: "/api/grades"}
}

func (c *Client) Lessons() Resource[model.Lesson] {
	return Resource[model.Lesson]{c: c, name: ResLessons, path: "/api/lessons"}
}

func (c *Client) QuestionTypes() Resource[model.QuestionType] {
	return Resource[model.QuestionType]{c: c, name: ResQuestionTypes, path: "/api/question-types"}
}

func (c *Client) Levels() Resource[model.Level] {
	return Resource[model.Level]{c: c, name: ResLevels, path: "/api/levels"}
}

func (c *Client) Questions() Resource[model.Question] {
	return Resource[model.Question]{c: c, name: ResQuestions, path: "/api/questions"}
}

func (c *Client) Options() Resource[model.Option] {
	return Resource[model.Option]{c: c, name: ResOptions, path: "/api/options"}
}

func (c *Client) Exams() Resource[model.Exam] {
	return Resource[model.Exam]{c: c, name: ResExams, path: "/api/exams"}
}

func (c *Client) AppSettings() Resource[model.AppSetting] {
	return Resource[model.AppSetting]{c: c, name: ResAppSettings, path: "/api/app-settings"}
}
