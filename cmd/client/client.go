package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/gurkanbulca/taskboard/internal/api"
)

// apiClient talks to the task board HTTP API.
type apiClient struct {
	baseURL string
	token   string
	timeout time.Duration
}

func newAPIClient(server, token string, timeout time.Duration) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(server, "/") + "/api/v1",
		token:   token,
		timeout: timeout,
	}
}

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%d %s", e.Status, e.Code)
	}
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

func (c *apiClient) do(method, path string, query url.Values, body, out any) error {
	uri := c.baseURL + path
	if len(query) > 0 {
		uri += "?" + query.Encode()
	}

	a := fiber.AcquireAgent()
	req := a.Request()
	req.Header.SetMethod(method)
	req.SetRequestURI(uri)
	if c.token != "" {
		a.Set(fiber.HeaderAuthorization, "Bearer "+c.token)
	}
	if body != nil {
		a.JSON(body)
	}
	if c.timeout > 0 {
		a.Timeout(c.timeout)
	}
	if err := a.Parse(); err != nil {
		fiber.ReleaseAgent(a)
		return fmt.Errorf("build request: %w", err)
	}

	code, data, errs := a.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("%s %s: %w", method, path, errors.Join(errs...))
	}

	if code < 200 || code > 299 {
		apiErr := &APIError{Status: code}
		var resp api.ErrorResponse
		if json.Unmarshal(data, &resp) == nil {
			apiErr.Code = resp.Error
			apiErr.Message = resp.Message
		}
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *apiClient) register(req api.RegisterRequest) (*api.UserResponse, error) {
	var u api.UserResponse
	if err := c.do(fiber.MethodPost, "/auth/register", nil, req, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *apiClient) login(username, password string) (*api.TokenResponse, error) {
	var tokens api.TokenResponse
	err := c.do(fiber.MethodPost, "/auth/login", nil, api.LoginRequest{Username: username, Password: password}, &tokens)
	if err != nil {
		return nil, err
	}
	return &tokens, nil
}

func (c *apiClient) profile() (*api.ProfileResponse, error) {
	var p api.ProfileResponse
	if err := c.do(fiber.MethodGet, "/profile", nil, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *apiClient) listTasks(path string, query url.Values) (*api.TaskPageResponse, error) {
	var page api.TaskPageResponse
	if err := c.do(fiber.MethodGet, path, query, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *apiClient) getTask(id string) (*api.TaskResponse, error) {
	var task api.TaskResponse
	if err := c.do(fiber.MethodGet, "/tasks/"+url.PathEscape(id), nil, nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *apiClient) createTask(req api.CreateTaskRequest) (*api.TaskResponse, error) {
	var task api.TaskResponse
	if err := c.do(fiber.MethodPost, "/tasks", nil, req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *apiClient) completeTask(id, comment string) (*api.TaskResponse, error) {
	var task api.TaskResponse
	err := c.do(fiber.MethodPost, "/tasks/"+url.PathEscape(id)+"/complete", nil, api.CompleteTaskRequest{Comment: comment}, &task)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *apiClient) deleteTask(id string) error {
	return c.do(fiber.MethodDelete, "/tasks/"+url.PathEscape(id), nil, nil, nil)
}
