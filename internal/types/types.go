// Package types defines the core entities persisted by EntireContext:
// projects, sessions, turns, their content blobs, checkpoints and
// attributions, plus the records used by cross-repo search.
package types

import "time"

// SessionKind is an open set of tags identifying the agent host that
// produced a session (e.g. "claude", "codex", "manual"). New values are
// accepted without a schema change.
type SessionKind string

// TurnStatus tracks a turn through its lifecycle.
type TurnStatus string

const (
	TurnInProgress TurnStatus = "in_progress"
	TurnCompleted  TurnStatus = "completed"
)

// AttributionKind distinguishes human-authored from agent-authored line ranges.
type AttributionKind string

const (
	AttributionHuman AttributionKind = "human"
	AttributionAgent AttributionKind = "agent"
)

// Verdict is the outcome of a FuturesAssessment.
type Verdict string

const (
	VerdictExpand  Verdict = "expand"
	VerdictNarrow  Verdict = "narrow"
	VerdictNeutral Verdict = "neutral"
)

// Feedback records user agreement with a FuturesAssessment.
type Feedback string

const (
	FeedbackAgree    Feedback = "agree"
	FeedbackDisagree Feedback = "disagree"
)

// Project is a single repository registration. One Project exists per
// canonical repo path; creation is idempotent on that path.
type Project struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	RepoPath string `json:"repo_path"`
}

// Session is a contiguous working interaction with one agent within a Project.
type Session struct {
	ID             string     `json:"id"`
	ProjectID      string     `json:"project_id"`
	Kind           string     `json:"kind"`
	StartedAt      time.Time  `json:"started_at"`
	LastActivityAt time.Time  `json:"last_activity_at"`
	EndedAt        *time.Time `json:"ended_at,omitempty"`
	TotalTurns     int        `json:"total_turns"`
	Title          string     `json:"title,omitempty"`
	Summary        string     `json:"summary,omitempty"`
	Metadata       Metadata   `json:"metadata,omitempty"`
}

// Active reports whether the session has no end time recorded yet.
func (s *Session) Active() bool {
	return s != nil && s.EndedAt == nil
}

// Turn is one user-prompt / agent-response exchange within a Session.
type Turn struct {
	ID               string     `json:"id"`
	SessionID        string     `json:"session_id"`
	TurnNumber       int        `json:"turn_number"`
	UserMessage      string     `json:"user_message"`
	AssistantSummary string     `json:"assistant_summary,omitempty"`
	ToolsUsed        StringList `json:"tools_used"`
	FilesTouched     StringList `json:"files_touched"`
	Status           TurnStatus `json:"status"`
	ContentHash      string     `json:"content_hash,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// TurnContent is the raw transcript blob backing a completed Turn.
type TurnContent struct {
	TurnID      string `json:"turn_id"`
	ContentPath string `json:"content_path"`
	SizeBytes   int64  `json:"size_bytes"`
	ContentHash string `json:"content_hash"`
}

// Checkpoint anchors a Session to a git commit.
type Checkpoint struct {
	ID            string            `json:"id"`
	SessionID     string            `json:"session_id"`
	CommitHash    string            `json:"commit_hash"`
	Branch        string            `json:"branch"`
	CreatedAt     time.Time         `json:"created_at"`
	DiffSummary   string            `json:"diff_summary,omitempty"`
	FilesSnapshot map[string]string `json:"files_snapshot,omitempty"` // path -> blob hash
	Metadata      Metadata          `json:"metadata,omitempty"`
}

// Attribution maps a line range in a file, at a given checkpoint, to a
// human or a named agent. Ranges are closed [Start, End].
type Attribution struct {
	ID           int64           `json:"id,omitempty"`
	FilePath     string          `json:"file_path"`
	StartLine    int             `json:"start_line"`
	EndLine      int             `json:"end_line"`
	CheckpointID string          `json:"checkpoint_id"`
	Kind         AttributionKind `json:"kind"`
	AgentID      string          `json:"agent_id,omitempty"`
	Confidence   *float64        `json:"confidence,omitempty"`
}

// Agent identifies a named AI agent that can be attributed authorship.
type Agent struct {
	ID          string `json:"id"`
	AgentType   string `json:"agent_type"`
	DisplayName string `json:"display_name"`
}

// RepoIndexEntry is one row of the global cross-repo registry.
type RepoIndexEntry struct {
	RepoPath string `json:"repo_path" yaml:"repo_path"`
	RepoName string `json:"repo_name" yaml:"repo_name"`
	DBPath   string `json:"db_path" yaml:"db_path"`
}

// FuturesAssessment records an LLM-backed roadmap assessment (produced by
// an out-of-scope collaborator; EntireContext only stores and queries it).
type FuturesAssessment struct {
	ID                string    `json:"id"`
	Verdict           Verdict   `json:"verdict"`
	ImpactSummary     string    `json:"impact_summary"`
	RoadmapAlignment  string    `json:"roadmap_alignment"`
	Suggestion        string    `json:"suggestion"`
	Feedback          Feedback  `json:"feedback,omitempty"`
	FeedbackReason    string    `json:"feedback_reason,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// BlameSummary aggregates Attribution ranges covering a query span.
type BlameSummary struct {
	TotalLines int            `json:"total_lines"`
	HumanLines int            `json:"human_lines"`
	HumanPct   float64        `json:"human_pct"`
	AgentLines int            `json:"agent_lines"`
	AgentPct   float64        `json:"agent_pct"`
	Agents     map[string]int `json:"agents"` // agent display name -> line count
}

// SearchTarget is one of the retrieval targets exposed by C6/C7.
type SearchTarget string

const (
	TargetTurn    SearchTarget = "turn"
	TargetSession SearchTarget = "session"
	TargetEvent   SearchTarget = "event"
	TargetContent SearchTarget = "content"
)

// SearchMode selects the retrieval algorithm.
type SearchMode string

const (
	ModeRegex    SearchMode = "regex"
	ModeFTS      SearchMode = "fts"
	ModeSemantic SearchMode = "semantic"
)

// SearchResult is one row returned by C6, optionally annotated by C7 with
// the source repo's name/path when the query fans out cross-repo.
type SearchResult struct {
	Target    SearchTarget `json:"target"`
	ID        string       `json:"id"`
	SessionID string       `json:"session_id,omitempty"`
	Snippet   string       `json:"snippet"`
	Rank      float64      `json:"rank,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
	RepoName  string       `json:"repo_name,omitempty"`
	RepoPath  string       `json:"repo_path,omitempty"`
}
