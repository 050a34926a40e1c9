package models

import "time"

// Profile is the subset of a GitHub user resource rendered into context.
type Profile struct {
	Login       string  `json:"login"`
	Name        *string `json:"name"`
	Bio         *string `json:"bio"`
	Location    *string `json:"location"`
	PublicRepos *int    `json:"public_repos"`
	Followers   *int    `json:"followers"`
	Following   *int    `json:"following"`
}

type Repository struct {
	Name            *string `json:"name"`
	StargazersCount *int    `json:"stargazers_count"`
	Description     *string `json:"description"`
}

// Record is one answered question, written once and never read back.
type Record struct {
	RequestID string    `json:"request_id"`
	Username  string    `json:"username"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"created_at"`
}

type AnswerState string

const (
	StateAnswered  AnswerState = "answered"
	StateExhausted AnswerState = "exhausted"
)

// Answer is the outcome of scanning chunks for a question. Chunk is the
// 1-based index of the accepting chunk, 0 for the fallback.
type Answer struct {
	Text    string
	Chunk   int
	Scanned int
	State   AnswerState
}

type PromptResponse struct {
	Username string `json:"username"`
	Query    string `json:"question"`
	Content  string `json:"answer"`
	State    AnswerState
}
