package examclient

import (
	"sync"
	"time"
)

// 缓存资源名
const (
	ResAppSettings     = "appSettings"
	ResSubjects        = "subjects"
	ResGrades          = "grades"
	ResLessons         = "lessons"
	ResQuestionTypes   = "questionTypes"
	ResLevels          = "levels"
	ResQuestions       = "questions"
	ResOptions         = "options"
	ResStudents        = "students"
	ResTeachers        = "teachers"
	ResExams           = "exams"
	ResMatrices        = "matrices"
	ResMatrixQuestions = "matrixQuestions"
	ResActiveSession   = "activeSession"
	ResSession         = "session"
	ResSessionAnswers  = "sessionAnswers"
	ResMySessions      = "mySessions"
	ResExamResults     = "examResults"
)

// Key 缓存键，ID 为 0 表示列表或单例
type Key struct {
	Resource string
	ID       uint
}

// Rule 一次变更需要失效的资源；SameID 只失效与变更目标同 id 的条目
type Rule struct {
	Resource string
	SameID   bool
}

// 变更名
const (
	MutCreateMatrix = "matrices.create"
	MutUpdateMatrix = "matrices.update"
	MutDeleteMatrix = "matrices.delete"
	MutStartExam    = "sessions.start"
	MutSubmitAnswer = "sessions.answer"
	MutSubmitExam   = "sessions.submit"
	MutUpdateMe     = "students.me"
)

// DefaultRules 变更与失效关系表
func DefaultRules() map[string][]Rule {
	rules := map[string][]Rule{
		MutCreateMatrix: {{Resource: ResMatrices}, {Resource: ResExams}},
		MutUpdateMatrix: {{Resource: ResMatrices}},
		MutDeleteMatrix: {{Resource: ResMatrices}, {Resource: ResExams}, {Resource: ResMatrixQuestions, SameID: true}},
		MutStartExam:    {{Resource: ResActiveSession}, {Resource: ResMySessions}},
		MutSubmitAnswer: {{Resource: ResSessionAnswers, SameID: true}},
		MutSubmitExam: {
			{Resource: ResActiveSession},
			{Resource: ResMySessions},
			{Resource: ResExamResults},
			{Resource: ResSession, SameID: true},
			{Resource: ResSessionAnswers, SameID: true},
		},
		MutUpdateMe: {{Resource: ResStudents}},
	}
	// 普通增删改只失效自身
	for _, res := range []string{
		ResAppSettings, ResSubjects, ResGrades, ResLessons, ResQuestionTypes,
		ResLevels, ResStudents, ResTeachers,
	} {
		for _, op := range []string{"create", "update", "delete"} {
			rules[res+"."+op] = []Rule{{Resource: res}}
		}
	}
	// 题目详情内嵌选项
	for _, op := range []string{"create", "update", "delete"} {
		rules[ResQuestions+"."+op] = []Rule{{Resource: ResQuestions}, {Resource: ResOptions}}
		rules[ResOptions+"."+op] = []Rule{{Resource: ResOptions}, {Resource: ResQuestions}}
		rules[ResExams+"."+op] = []Rule{{Resource: ResExams}, {Resource: ResMatrices}}
	}
	return rules
}

type cacheEntry struct {
	data    []byte
	expires time.Time
}

// Cache 按 (resource, id) 缓存读结果，变更成功后按规则表失效
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[Key]cacheEntry
	rules   map[string][]Rule
	now     func() time.Time
}

// NewCache ttl 为 0 时条目只靠失效规则清除
func NewCache(ttl time.Duration, rules map[string][]Rule) *Cache {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Cache{
		ttl:     ttl,
		entries: make(map[Key]cacheEntry),
		rules:   rules,
		now:     time.Now,
	}
}

func (c *Cache) Get(key Key) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !e.expires.IsZero() && c.now().After(e.expires) {
		return nil, false
	}
	return e.data, true
}

func (c *Cache) Set(key Key, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := cacheEntry{data: data}
	if c.ttl > 0 {
		e.expires = c.now().Add(c.ttl)
	}
	c.entries[key] = e
}

// Invalidate 应用 mutation 对应的规则，返回被清除的条目数
func (c *Cache) Invalidate(mutation string, id uint) int {
	rules, ok := c.rules[mutation]
	if !ok {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for _, r := range rules {
		for k := range c.entries {
			if k.Resource != r.Resource {
				continue
			}
			if r.SameID && k.ID != id {
				continue
			}
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Clear 登出时清空
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[Key]cacheEntry)
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
