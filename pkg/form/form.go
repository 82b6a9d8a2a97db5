// Package form serves platform form definitions (profile, consent, content
// filter forms) through the cached item store.
//
// Forms are looked up cache first under "form-<type>_<subType>_<action>". A
// stale or missing form is read from the platform API, and when the API is
// unreachable and nothing is cached, from the bundled form asset.
package form

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"time"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/learn-cache/pkg/api"
	"github.com/Sternrassler/learn-cache/pkg/assets"
	"github.com/Sternrassler/learn-cache/pkg/cacheditem"
	"github.com/Sternrassler/learn-cache/pkg/logging"
)

const (
	// Namespace prefixes form payload keys.
	Namespace = "form-"

	// TTLNamespace prefixes form ttl keys.
	TTLNamespace = "ttl_" + Namespace

	readEndpoint = "/read"
)

// Form is a form definition as returned by the platform.
type Form map[string]any

// Request identifies a form.
type Request struct {
	Type      string `json:"type" validate:"required"`
	SubType   string `json:"subType" validate:"required"`
	Action    string `json:"action" validate:"required"`
	Component string `json:"component,omitempty"`
	RootOrgID string `json:"rootOrgId,omitempty"`
	Framework string `json:"framework,omitempty"`

	// From selects cache-first (default) or network-first lookup.
	From cacheditem.Source `json:"-"`
}

// ID returns the cache id of the form, "<type>_<subType>_<action>" with
// "_<component>" appended when set. Forms with a component therefore have
// their own cache entries and bundled asset files
// (form-<type>_<subType>_<action>_<component>.json); without a component
// the id matches the one older clients used.
func (r Request) ID() string {
	id := r.Type + "_" + r.SubType + "_" + r.Action
	if r.Component != "" {
		id += "_" + r.Component
	}
	return id
}

// Key returns the cached item key of the form.
func (r Request) Key() cacheditem.Key {
	return cacheditem.Key{ID: r.ID(), Namespace: Namespace, TTLNamespace: TTLNamespace}
}

// Config holds the form service configuration.
type Config struct {
	// APIPath is the form API prefix, e.g. "/data/v1/form".
	APIPath string

	// AssetDir is the directory of bundled form-<id>.json files inside the assets.
	AssetDir string

	// TTL overrides the store's default ttl when positive.
	TTL time.Duration
}

// Service looks up forms.
type Service struct {
	client *api.Client
	assets *assets.Reader
	store  *cacheditem.Store
	config Config
	logger zerolog.Logger
}

var _ api.Handler[Request, Form] = (*Service)(nil)

// NewService creates a form service. reader may be nil when no forms are bundled.
func NewService(client *api.Client, reader *assets.Reader, store *cacheditem.Store, cfg Config) *Service {
	if client == nil || store == nil {
		panic("form: api client and store are required")
	}
	return &Service{
		client: client,
		assets: reader,
		store:  store,
		config: cfg,
		logger: logging.NewLogger("form-service"),
	}
}

// GetForm returns the form identified by req.
func (s *Service) GetForm(ctx context.Context, req Request) (Form, error) {
	s.logger.Debug().
		Str("form_id", req.ID()).
		Str("from", string(req.From)).
		Msg("Form requested")

	opts := s.options(req)

	form, err := cacheditem.Lookup(ctx, s.store, req.From, req.Key(), func(ctx context.Context) (Form, error) {
		return s.fetchFromServer(ctx, req)
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("get form %s: %w", req.ID(), err)
	}
	return form, nil
}

// Refresh reads the form from the platform API and stores it. It fails when
// the API call fails, even if a form is already cached.
func (s *Service) Refresh(ctx context.Context, req Request) error {
	err := cacheditem.Refresh(ctx, s.store, req.Key(), func(ctx context.Context) (Form, error) {
		return s.fetchFromServer(ctx, req)
	}, s.ttlOption()...)
	if err != nil {
		return fmt.Errorf("refresh form %s: %w", req.ID(), err)
	}
	return nil
}

func (s *Service) options(req Request) []cacheditem.Option[Form] {
	opts := s.ttlOption()
	if s.assets != nil {
		opts = append(opts, cacheditem.WithFallback(func(context.Context) (Form, error) {
			return s.fetchFromAsset(req)
		}))
	}
	return opts
}

func (s *Service) ttlOption() []cacheditem.Option[Form] {
	if s.config.TTL > 0 {
		return []cacheditem.Option[Form]{cacheditem.WithTTL[Form](s.config.TTL)}
	}
	return nil
}

// Handle implements api.Handler.
func (s *Service) Handle(ctx context.Context, req Request) (Form, error) {
	return s.GetForm(ctx, req)
}

func (s *Service) fetchFromServer(ctx context.Context, req Request) (Form, error) {
	result, err := api.Fetch[struct {
		Form Form `json:"form"`
	}](ctx, s.client, api.Request{
		Method:    http.MethodPost,
		Path:      s.config.APIPath + readEndpoint,
		Body:      map[string]Request{"request": req},
		WithToken: true,
		Endpoint:  "form.read",
	})
	if err != nil {
		return nil, err
	}
	return result.Form, nil
}

func (s *Service) fetchFromAsset(req Request) (Form, error) {
	name := path.Join(s.config.AssetDir, Namespace+req.ID()+".json")

	file, err := assets.ReadJSON[struct {
		Result struct {
			Form Form `json:"form"`
		} `json:"result"`
	}](s.assets, name)
	if err != nil {
		return nil, err
	}

	s.logger.Debug().Str("asset", name).Msg("Serving bundled form")
	return file.Result.Form, nil
}
