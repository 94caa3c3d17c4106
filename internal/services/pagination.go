package services

import "github.com/onsil/backend/internal/models"

// PageLimits bounds page sizes requested by clients
type PageLimits struct {
	DefaultSize int
	MaxSize     int
}

func (l PageLimits) normalize(req models.PageRequest) models.PageRequest {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Size < 1 {
		req.Size = l.DefaultSize
	}
	if l.MaxSize > 0 && req.Size > l.MaxSize {
		req.Size = l.MaxSize
	}
	if req.Size < 1 {
		req.Size = 10
	}
	return req
}
