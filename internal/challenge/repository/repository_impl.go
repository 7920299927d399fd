package repository

import (
	"context"
	"errors"
	"strings"

	challengedomain "github.com/depictapp/depict/internal/challenge/domain"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) challengedomain.Repository {
	return &Repository{db: db}
}

func (r *Repository) FindByID(ctx context.Context, id string) (*challengedomain.Challenge, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, challengedomain.ErrNotFound
	}

	var challenge challengedomain.Challenge
	err := r.db.WithContext(ctx).First(&challenge, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, challengedomain.ErrNotFound
		}
		return nil, err
	}
	return &challenge, nil
}
