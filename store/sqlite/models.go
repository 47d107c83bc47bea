package sqlite

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/sparkq/sparkq/model"
)

type projectModel struct {
	bun.BaseModel `bun:"table:projects"`

	Id       string `bun:"id,pk"`
	Name     string `bun:"name,notnull"`
	RepoPath string `bun:"repo_path,notnull"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func (m *projectModel) toModel() *model.Project {
	return &model.Project{
		Id:        m.Id,
		Name:      m.Name,
		RepoPath:  m.RepoPath,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

type sessionModel struct {
	bun.BaseModel `bun:"table:sessions"`

	Id          string `bun:"id,pk"`
	Name        string `bun:"name,notnull,unique"`
	Description string `bun:"description"`
	Status      model.SessionStatus `bun:"status,notnull,default:0"`

	StartedAt time.Time  `bun:"started_at,nullzero,notnull,default:current_timestamp"`
	EndedAt   *time.Time `bun:"ended_at,nullzero"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func (m *sessionModel) toModel() *model.Session {
	return &model.Session{
		Id:          m.Id,
		Name:        m.Name,
		Description: m.Description,
		Status:      m.Status,
		StartedAt:   m.StartedAt,
		EndedAt:     m.EndedAt,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

type queueModel struct {
	bun.BaseModel `bun:"table:queues"`

	Id           string              `bun:"id,pk"`
	SessionId    string              `bun:"session_id,notnull"`
	Name         string              `bun:"name,notnull,unique"`
	Instructions string              `bun:"instructions"`
	Status       model.QueueStatus   `bun:"status,notnull,default:0"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func (m *queueModel) toModel() *model.Queue {
	return &model.Queue{
		Id:           m.Id,
		SessionId:    m.SessionId,
		Name:         m.Name,
		Instructions: m.Instructions,
		Status:       m.Status,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

type taskModel struct {
	bun.BaseModel `bun:"table:tasks"`

	Id         string `bun:"id,pk"`
	FriendlyId string `bun:"friendly_id,notnull"`
	QueueId    string `bun:"queue_id,notnull"`

	ToolName  string `bun:"tool_name,notnull"`
	TaskClass string `bun:"task_class,notnull"`
	Payload   string `bun:"payload"`

	Status   model.TaskStatus `bun:"status,notnull,default:0"`
	Timeout  int              `bun:"timeout,notnull"`
	Attempts int              `bun:"attempts,notnull,default:0"`

	Result        string `bun:"result"`
	ResultSummary string `bun:"result_summary"`
	Error         string `bun:"error"`
	ErrorMessage  string `bun:"error_message"`

	StaleWarnedAt *time.Time `bun:"stale_warned_at,nullzero"`

	CreatedAt   time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt   time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
	StartedAt   *time.Time `bun:"started_at,nullzero"`
	FinishedAt  *time.Time `bun:"finished_at,nullzero"`
	ClaimedAt   *time.Time `bun:"claimed_at,nullzero"`
	CompletedAt *time.Time `bun:"completed_at,nullzero"`
	FailedAt    *time.Time `bun:"failed_at,nullzero"`
}

func (m *taskModel) toModel() *model.Task {
	return &model.Task{
		Id:            m.Id,
		FriendlyId:    m.FriendlyId,
		QueueId:       m.QueueId,
		ToolName:      m.ToolName,
		TaskClass:     m.TaskClass,
		Payload:       m.Payload,
		Status:        m.Status,
		Timeout:       m.Timeout,
		Attempts:      m.Attempts,
		Result:        m.Result,
		ResultSummary: m.ResultSummary,
		Error:         m.Error,
		ErrorMessage:  m.ErrorMessage,
		StaleWarnedAt: m.StaleWarnedAt,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
		StartedAt:     m.StartedAt,
		FinishedAt:    m.FinishedAt,
		ClaimedAt:     m.ClaimedAt,
		CompletedAt:   m.CompletedAt,
		FailedAt:      m.FailedAt,
	}
}

func fromTaskModel(t *model.Task) *taskModel {
	return &taskModel{
		Id:            t.Id,
		FriendlyId:    t.FriendlyId,
		QueueId:       t.QueueId,
		ToolName:      t.ToolName,
		TaskClass:     t.TaskClass,
		Payload:       t.Payload,
		Status:        t.Status,
		Timeout:       t.Timeout,
		Attempts:      t.Attempts,
		Result:        t.Result,
		ResultSummary: t.ResultSummary,
		Error:         t.Error,
		ErrorMessage:  t.ErrorMessage,
		StaleWarnedAt: t.StaleWarnedAt,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
		StartedAt:     t.StartedAt,
		FinishedAt:    t.FinishedAt,
		ClaimedAt:     t.ClaimedAt,
		CompletedAt:   t.CompletedAt,
		FailedAt:      t.FailedAt,
	}
}

type configEntryModel struct {
	bun.BaseModel `bun:"table:config"`

	Namespace string `bun:"namespace,pk"`
	Key       string `bun:"key_,pk"`
	Value     string `bun:"value"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func (m *configEntryModel) toModel() *model.ConfigEntry {
	return &model.ConfigEntry{
		Namespace: m.Namespace,
		Key:       m.Key,
		Value:     m.Value,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

type toolModel struct {
	bun.BaseModel `bun:"table:tools"`

	Name        string `bun:"name,pk"`
	TaskClass   string `bun:"task_class,notnull"`
	Description string `bun:"description"`
}

func (m *toolModel) toModel() *model.Tool {
	return &model.Tool{Name: m.Name, TaskClass: m.TaskClass, Description: m.Description}
}

type taskClassModel struct {
	bun.BaseModel `bun:"table:task_classes"`

	Name        string `bun:"name,pk"`
	Timeout     int    `bun:"timeout,notnull"`
	Description string `bun:"description"`
}

func (m *taskClassModel) toModel() *model.TaskClass {
	return &model.TaskClass{Name: m.Name, Timeout: m.Timeout, Description: m.Description}
}

type promptModel struct {
	bun.BaseModel `bun:"table:prompts"`

	Name string `bun:"name,pk"`
	Body string `bun:"body"`
}

func (m *promptModel) toModel() *model.Prompt {
	return &model.Prompt{Name: m.Name, Body: m.Body}
}
