package client

import (
	"context"

	"recipe-customizer/internal/core/customize"
	"recipe-customizer/internal/pkg/common"
	"recipe-customizer/internal/pkg/sequence"
)

// Session 同一使用者的連續客製化；只有最後一次送出的請求結果會被採用
type Session struct {
	client  *Client
	id      string
	tracker *sequence.Tracker
}

// NewSession 以 UUID 建立 session
func NewSession(c *Client) *Session {
	return &Session{
		client:  c,
		id:      common.GenerateUUID(),
		tracker: sequence.NewTracker(),
	}
}

// ID session 識別碼
func (s *Session) ID() string {
	return s.id
}

// Customize 回應抵達時若已有較新的請求送出，回傳 ErrStaleResult
func (s *Session) Customize(ctx context.Context, req customize.Request) (*customize.Response, error) {
	ticket := s.tracker.Begin(s.id)
	defer ticket.Done()

	resp, err := s.client.Customize(ctx, s.id, req, req.RecipeID)
	if !ticket.Current() {
		return nil, common.ErrStaleResult.WithMessage("response for generation %d superseded", ticket.Generation())
	}
	return resp, err
}
