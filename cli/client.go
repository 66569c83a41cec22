package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"
)

const defaultBaseURL = "http://localhost:8080"

// ApiClient handles requests to the kitchenrush API
type ApiClient struct {
	httpClient *http.Client
	BaseURL    string
	Token      string
}

// NewApiClient creates a client from KITCHENRUSH_API_URL and KITCHENRUSH_TOKEN
func NewApiClient() *ApiClient {
	baseURL := os.Getenv("KITCHENRUSH_API_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &ApiClient{
		httpClient: &http.Client{
			Timeout: time.Second * 10,
		},
		BaseURL: baseURL,
		Token:   os.Getenv("KITCHENRUSH_TOKEN"),
	}
}

// APIError is a non-2xx response from the server
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

// Point is a position on the kitchen floor
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Station is one interactive station from the layout
type Station struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Name     string `json:"name"`
	Position Point  `json:"position"`
}

// Layout is the kitchen map
type Layout struct {
	Width    float64   `json:"width"`
	Height   float64   `json:"height"`
	Stations []Station `json:"stations"`
	Spawn    Point     `json:"spawn"`
}

// OrderStep is one station on an order's route
type OrderStep struct {
	StationType string `json:"station_type"`
	Status      string `json:"status"`
	Attempts    int    `json:"attempts"`
}

// Order is a customer ticket
type Order struct {
	ID            string        `json:"id"`
	DishName      string        `json:"dish_name"`
	Steps         []OrderStep   `json:"steps"`
	TimeRemaining time.Duration `json:"time_remaining"`
	Status        string        `json:"status"`
	QualityScore  int           `json:"quality_score"`
}

// Choice is one answer option
type Choice struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Question is the open skill check, without its answer
type Question struct {
	ID          string   `json:"id"`
	StationType string   `json:"station_type"`
	Stem        string   `json:"stem"`
	Passage     string   `json:"passage,omitempty"`
	Choices     []Choice `json:"choices"`
}

// Mechanic is the running station challenge
type Mechanic struct {
	Station  string        `json:"station"`
	Kind     string        `json:"kind"`
	State    string        `json:"state"`
	TimeLeft time.Duration `json:"time_left"`
	Progress int           `json:"progress"`
	Target   int           `json:"target"`
	Meter    float64       `json:"meter,omitempty"`
	Window   [2]float64    `json:"window,omitempty"`
}

// InventoryItem is one product on the hotbar
type InventoryItem struct {
	Name    string `json:"name"`
	Station string `json:"station"`
}

// Player is the avatar state
type Player struct {
	Position Point  `json:"position"`
	Facing   string `json:"facing"`
	Moving   bool   `json:"moving"`
}

// Snapshot is the session state pushed by the server
type Snapshot struct {
	SessionID       string          `json:"session_id"`
	Status          string          `json:"status"`
	TimeLeft        time.Duration   `json:"time_left"`
	Score           int             `json:"score"`
	Paused          bool            `json:"paused"`
	Player          Player          `json:"player"`
	Highlight       string          `json:"highlight,omitempty"`
	ActiveStation   string          `json:"active_station,omitempty"`
	Orders          []Order         `json:"orders"`
	CarriedOrderID  string          `json:"carried_order_id,omitempty"`
	Question        *Question       `json:"question,omitempty"`
	Mechanic        *Mechanic       `json:"mechanic,omitempty"`
	Recipe          *Order          `json:"recipe,omitempty"`
	Inventory       []InventoryItem `json:"inventory"`
	OrdersCompleted int             `json:"orders_completed"`
	OrdersFailed    int             `json:"orders_failed"`
}

// AnswerResult is the feedback for a submitted answer
type AnswerResult struct {
	Correct         bool   `json:"correct"`
	CorrectChoiceID string `json:"correct_choice_id"`
	Explanation     string `json:"explanation"`
	Points          int    `json:"points"`
	Score           int    `json:"score"`
}

// Report is the end-of-session recap
type Report struct {
	SessionID          string  `json:"session_id"`
	Score              int     `json:"score"`
	OrdersCompleted    int     `json:"orders_completed"`
	OrdersFailed       int     `json:"orders_failed"`
	QuestionsAttempted int     `json:"questions_attempted"`
	QuestionsCorrect   int     `json:"questions_correct"`
	Accuracy           float64 `json:"accuracy"`
	Grade              string  `json:"grade"`
	Coins              int     `json:"coins"`
	XP                 int     `json:"xp"`
}

// SessionRecord is a finished session from the player's history
type SessionRecord struct {
	SessionID       string
	EndedAt         time.Time
	Score           int
	OrdersCompleted int
	OrdersFailed    int
	Accuracy        float64
	Grade           string
}

// Profile is the player's accumulated progress
type Profile struct {
	UserID        string
	Coins         int
	XP            int
	Level         int
	TotalSessions int
	HighScore     int
}

// do sends a JSON request and decodes the JSON response into out
func (c *ApiClient) do(method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) != nil || apiErr.Error == "" {
			apiErr.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: apiErr.Error}
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func sessionPath(id, suffix string) string {
	return "/api/v1/sessions/" + url.PathEscape(id) + suffix
}

// CheckHealth checks if the API is up and running
func (c *ApiClient) CheckHealth() (bool, error) {
	if err := c.do(http.MethodGet, "/health", nil, nil); err != nil {
		return false, err
	}
	return true, nil
}

// GetLayout fetches the kitchen map
func (c *ApiClient) GetLayout() (*Layout, error) {
	var layout Layout
	if err := c.do(http.MethodGet, "/api/v1/layout", nil, &layout); err != nil {
		return nil, err
	}
	return &layout, nil
}

// StartSession begins a new session for the caller
func (c *ApiClient) StartSession() (*Snapshot, error) {
	var snap Snapshot
	if err := c.do(http.MethodPost, "/api/v1/sessions", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// GetSnapshot fetches the current session state
func (c *ApiClient) GetSnapshot(id string) (*Snapshot, error) {
	var snap Snapshot
	if err := c.do(http.MethodGet, sessionPath(id, ""), nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// MoveToStation walks the player to a station
func (c *ApiClient) MoveToStation(id, stationID string) error {
	return c.do(http.MethodPost, sessionPath(id, "/move"), map[string]string{"station_id": stationID}, nil)
}

// SetKeys holds a keyboard direction; zero releases it
func (c *ApiClient) SetKeys(id string, dx, dy float64) error {
	return c.do(http.MethodPost, sessionPath(id, "/keys"), map[string]float64{"dx": dx, "dy": dy}, nil)
}

// Interact re-arms the highlighted station
func (c *ApiClient) Interact(id string) error {
	return c.do(http.MethodPost, sessionPath(id, "/interact"), nil, nil)
}

// Answer submits a choice for the open question
func (c *ApiClient) Answer(id, choiceID string) (*AnswerResult, error) {
	var res AnswerResult
	if err := c.do(http.MethodPost, sessionPath(id, "/answer"), map[string]string{"choice_id": choiceID}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// MechanicAction registers one action on the running mechanic
func (c *ApiClient) MechanicAction(id string) (*Mechanic, error) {
	var m Mechanic
	if err := c.do(http.MethodPost, sessionPath(id, "/mechanic/action"), nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// AbandonMechanic closes the running mechanic
func (c *ApiClient) AbandonMechanic(id string) error {
	return c.do(http.MethodPost, sessionPath(id, "/mechanic/abandon"), nil, nil)
}

// DismissRecipe closes the recipe ticket
func (c *ApiClient) DismissRecipe(id string) error {
	return c.do(http.MethodPost, sessionPath(id, "/recipe/dismiss"), nil, nil)
}

// EndSession stops the session and returns its recap
func (c *ApiClient) EndSession(id string) (*Report, error) {
	var report Report
	if err := c.do(http.MethodDelete, sessionPath(id, ""), nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// GetSessions retrieves the caller's finished sessions, newest first
func (c *ApiClient) GetSessions(limit int) ([]SessionRecord, error) {
	var records []SessionRecord
	path := "/api/v1/users/me/sessions?limit=" + strconv.Itoa(limit)
	if err := c.do(http.MethodGet, path, nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// GetProfile retrieves the caller's profile
func (c *ApiClient) GetProfile() (*Profile, error) {
	var p Profile
	if err := c.do(http.MethodGet, "/api/v1/users/me/profile", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
