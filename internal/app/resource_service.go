package app

import (
	"context"
	"strings"

	"mindwell/internal/model"
)

const featuredResourceCount = 4

type ResourceStore interface {
	Create(ctx context.Context, resource *model.Resource) error
	List(ctx context.Context, query string, limit int) ([]model.Resource, error)
	GetByID(ctx context.Context, id uint) (*model.Resource, error)
}

type ResourceInput struct {
	Title        string
	Content      string
	Category     []string
	ThumbnailURL string
	Author       string
}

type ResourceService struct {
	resources ResourceStore
}

func NewResourceService(resources ResourceStore) *ResourceService {
	return &ResourceService{resources: resources}
}

func (s *ResourceService) List(ctx context.Context) ([]model.Resource, error) {
	return s.resources.List(ctx, "", 0)
}

// Featured returns the newest few resources for the dashboard.
func (s *ResourceService) Featured(ctx context.Context) ([]model.Resource, error) {
	return s.resources.List(ctx, "", featuredResourceCount)
}

func (s *ResourceService) Get(ctx context.Context, id uint) (*model.Resource, error) {
	if id == 0 {
		return nil, ErrInvalidInput
	}
	resource, err := s.resources.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if resource == nil {
		return nil, ErrResourceNotFound
	}
	return resource, nil
}

// Categories lists every category in use, in order of first appearance.
func (s *ResourceService) Categories(ctx context.Context) ([]string, error) {
	resources, err := s.resources.List(ctx, "", 0)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	categories := make([]string, 0)
	for _, r := range resources {
		for _, c := range r.Category {
			key := strings.ToLower(strings.TrimSpace(c))
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			categories = append(categories, c)
		}
	}
	return categories, nil
}

// Search matches query against titles and optionally narrows to one category.
func (s *ResourceService) Search(ctx context.Context, query, category string) ([]model.Resource, error) {
	resources, err := s.resources.List(ctx, query, 0)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(category) == "" {
		return resources, nil
	}

	matched := make([]model.Resource, 0, len(resources))
	for i := range resources {
		if resources[i].InCategory(category) {
			matched = append(matched, resources[i])
		}
	}
	return matched, nil
}

func (s *ResourceService) Create(ctx context.Context, input ResourceInput) (*model.Resource, error) {
	title := strings.TrimSpace(input.Title)
	content := strings.TrimSpace(input.Content)
	if title == "" || content == "" {
		return nil, ErrInvalidInput
	}

	resource := &model.Resource{
		Title:        title,
		Content:      content,
		Category:     compactTags(input.Category),
		ThumbnailURL: strings.TrimSpace(input.ThumbnailURL),
		Author:       strings.TrimSpace(input.Author),
	}
	if err := s.resources.Create(ctx, resource); err != nil {
		return nil, err
	}
	return resource, nil
}
