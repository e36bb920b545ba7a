package domain

import "time"

type Phase string

const (
	PhaseIdle          Phase = "idle"
	PhaseAlert         Phase = "alert"
	PhaseTriage        Phase = "triage"
	PhaseDiagnosis     Phase = "diagnosis"
	PhaseRemediation   Phase = "remediation"
	PhaseCommunication Phase = "communication"
	PhaseResolved      Phase = "resolved"
)

type AgentID string

// AgentSystem is the pseudo-agent used as sender or receiver of messages
// that do not involve another agent.
const AgentSystem AgentID = "system"

type MessageType string

const (
	MessageTypeRequest  MessageType = "request"
	MessageTypeResponse MessageType = "response"
	MessageTypeAlert    MessageType = "alert"
	MessageTypeHandoff  MessageType = "handoff"
)

func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeRequest, MessageTypeResponse, MessageTypeAlert, MessageTypeHandoff:
		return true
	}
	return false
}

type Status string

const (
	StatusIdle     Status = "idle"
	StatusRunning  Status = "running"
	StatusPaused   Status = "paused"
	StatusComplete Status = "complete"
)

type Agent struct {
	ID       AgentID       `json:"id"`
	Name     string        `json:"name"`
	Role     string        `json:"role"`
	Tools    []string      `json:"tools,omitempty"`
	Duration time.Duration `json:"duration"`
}

type TimelineEvent struct {
	ID          string        `json:"id"`
	Phase       Phase         `json:"phase"`
	At          time.Duration `json:"at"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Details     []string      `json:"details,omitempty"`
	Agent       AgentID       `json:"agent,omitempty"`
	Duration    time.Duration `json:"duration,omitempty"`
	Query       string        `json:"query,omitempty"`
}

// Offset reports when the event becomes visible, relative to scenario start.
func (e TimelineEvent) Offset() time.Duration { return e.At }

type AgentMessage struct {
	ID      string        `json:"id"`
	From    AgentID       `json:"from"`
	To      AgentID       `json:"to"`
	Phase   Phase         `json:"phase"`
	Content string        `json:"content"`
	At      time.Duration `json:"at"`
	Type    MessageType   `json:"type"`
}

func (m AgentMessage) Offset() time.Duration { return m.At }

// DemoState is a point-in-time copy of a playback session. Slices are owned
// by the receiver.
type DemoState struct {
	SessionID         string          `json:"session_id"`
	Scenario          string          `json:"scenario"`
	Status            Status          `json:"status"`
	Phase             Phase           `json:"phase"`
	IsPlaying         bool            `json:"is_playing"`
	IsPaused          bool            `json:"is_paused"`
	Speed             float64         `json:"speed"`
	Elapsed           time.Duration   `json:"elapsed"`
	Events            []TimelineEvent `json:"events"`
	Messages          []AgentMessage  `json:"messages"`
	ActiveAgent       AgentID         `json:"active_agent,omitempty"`
	CurrentEventIndex int             `json:"current_event_index"`
	Progress          int             `json:"progress"`
	LastHandoff       AgentMessage    `json:"last_handoff,omitempty"`
}
