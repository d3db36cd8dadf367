// Package content manages the portfolio's projects and technologies
package content

import (
	"context"
	"strings"
	"sync"
	"time"

	"droidfolio/apperrors"
	"droidfolio/pkg/logger"
	"droidfolio/store"

	"github.com/google/uuid"
)

type Service struct {
	store store.Store
	mu    sync.Mutex
	now   func() time.Time
}

func NewService(st store.Store) *Service {
	return &Service{store: st, now: time.Now}
}

// Projects returns every project, seeding the built-in ones on first read
func (s *Service) Projects(ctx context.Context) ([]Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.projects(ctx)
}

// SaveProject replaces the project with the same id or appends it.
// A missing id, image or creation time is filled in.
func (s *Service) SaveProject(ctx context.Context, p Project) (Project, error) {
	p.Title = strings.TrimSpace(p.Title)
	p.Description = strings.TrimSpace(p.Description)
	if p.Title == "" || p.Description == "" {
		return Project{}, apperrors.NewValidationError("Project title and description are required")
	}

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.ImageURL == "" {
		p.ImageURL = DefaultImageURL
	}
	if p.CreatedAt == 0 {
		p.CreatedAt = s.now().UnixMilli()
	}
	if p.TechStack == nil {
		p.TechStack = []string{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	projects, err := s.projects(ctx)
	if err != nil {
		return Project{}, err
	}

	replaced := false
	for i := range projects {
		if projects[i].ID == p.ID {
			projects[i] = p
			replaced = true
			break
		}
	}
	if !replaced {
		projects = append(projects, p)
	}

	if err := store.Save(ctx, s.store, ProjectsKey, projects); err != nil {
		return Project{}, err
	}

	logger.WithFields(map[string]any{"project_id": p.ID, "replaced": replaced}).Info("Project saved")
	return p, nil
}

// DeleteProject removes the project with id. Unknown ids are ignored.
func (s *Service) DeleteProject(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects, err := s.projects(ctx)
	if err != nil {
		return err
	}

	kept := make([]Project, 0, len(projects))
	for _, p := range projects {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	return store.Save(ctx, s.store, ProjectsKey, kept)
}

// Technologies returns every technology, seeding the built-in ones on first read
func (s *Service) Technologies(ctx context.Context) ([]Technology, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.technologies(ctx)
}

// AddTechnology appends a technology under a fresh id
func (s *Service) AddTechnology(ctx context.Context, name, icon string) (Technology, error) {
	name = strings.TrimSpace(name)
	icon = strings.TrimSpace(icon)
	if name == "" || icon == "" {
		return Technology{}, apperrors.NewValidationError("Technology name and icon are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	techs, err := s.technologies(ctx)
	if err != nil {
		return Technology{}, err
	}

	t := Technology{ID: uuid.NewString(), Name: name, Icon: icon}
	techs = append(techs, t)
	if err := store.Save(ctx, s.store, TechnologiesKey, techs); err != nil {
		return Technology{}, err
	}
	return t, nil
}

// DeleteTechnology removes the technology with id. Unknown ids are ignored.
func (s *Service) DeleteTechnology(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	techs, err := s.technologies(ctx)
	if err != nil {
		return err
	}

	kept := make([]Technology, 0, len(techs))
	for _, t := range techs {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	return store.Save(ctx, s.store, TechnologiesKey, kept)
}

func (s *Service) projects(ctx context.Context) ([]Project, error) {
	projects, found, err := store.Load[[]Project](ctx, s.store, ProjectsKey)
	if err != nil || found {
		return projects, err
	}

	projects = initialProjects(s.now().UnixMilli())
	if err := store.Save(ctx, s.store, ProjectsKey, projects); err != nil {
		return nil, err
	}
	logger.Info("Seeded %d built-in projects", len(projects))
	return projects, nil
}

func (s *Service) technologies(ctx context.Context) ([]Technology, error) {
	techs, found, err := store.Load[[]Technology](ctx, s.store, TechnologiesKey)
	if err != nil || found {
		return techs, err
	}

	techs = append([]Technology(nil), initialTechnologies...)
	if err := store.Save(ctx, s.store, TechnologiesKey, techs); err != nil {
		return nil, err
	}
	logger.Info("Seeded %d built-in technologies", len(techs))
	return techs, nil
}
