// Package systemsettings serves platform system settings (terms and
// conditions, feature toggles, tenant defaults) through the cached item store.
package systemsettings

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/learn-cache/pkg/api"
	"github.com/Sternrassler/learn-cache/pkg/assets"
	"github.com/Sternrassler/learn-cache/pkg/cacheditem"
	"github.com/Sternrassler/learn-cache/pkg/logging"
)

const (
	// Namespace prefixes system setting payload keys.
	Namespace = "system-settings-"

	// TTLNamespace prefixes system setting ttl keys.
	TTLNamespace = "ttl_" + Namespace

	assetPrefix = "system-setting-"
)

// SystemSettings is one platform setting.
type SystemSettings struct {
	ID    string `json:"id"`
	Field string `json:"field"`
	Value string `json:"value"`
}

// Request identifies a setting.
type Request struct {
	ID string `json:"id" validate:"required"`

	// From selects cache-first (default) or network-first lookup.
	From cacheditem.Source `json:"-"`
}

// Key returns the cached item key of the setting.
func (r Request) Key() cacheditem.Key {
	return cacheditem.Key{ID: r.ID, Namespace: Namespace, TTLNamespace: TTLNamespace}
}

// Config holds the system settings service configuration.
type Config struct {
	// APIPath is the settings API prefix, e.g. "/data/v1/system/settings".
	APIPath string

	// AssetDir holds bundled system-setting-<id>.json files.
	AssetDir string

	// TTL overrides the store's default ttl when positive.
	TTL time.Duration
}

// Service looks up system settings.
type Service struct {
	client *api.Client
	assets *assets.Reader
	store  *cacheditem.Store
	config Config
	logger zerolog.Logger
}

var _ api.Handler[Request, SystemSettings] = (*Service)(nil)

// NewService creates a system settings service. reader may be nil.
func NewService(client *api.Client, reader *assets.Reader, store *cacheditem.Store, cfg Config) *Service {
	if client == nil || store == nil {
		panic("systemsettings: api client and store are required")
	}
	return &Service{
		client: client,
		assets: reader,
		store:  store,
		config: cfg,
		logger: logging.NewLogger("system-settings-service"),
	}
}

// GetSystemSettings returns the setting identified by req.
func (s *Service) GetSystemSettings(ctx context.Context, req Request) (SystemSettings, error) {
	if req.ID == "" {
		return SystemSettings{}, fmt.Errorf("system settings id is required")
	}

	opts := s.storeOptions()
	if s.assets != nil {
		opts = append(opts, cacheditem.WithFallback(func(context.Context) (SystemSettings, error) {
			return s.fetchFromAsset(req.ID)
		}))
	}

	setting, err := cacheditem.Lookup(ctx, s.store, req.From, req.Key(), func(ctx context.Context) (SystemSettings, error) {
		return s.fetchFromServer(ctx, req.ID)
	}, opts...)
	if err != nil {
		return SystemSettings{}, fmt.Errorf("get system settings %s: %w", req.ID, err)
	}
	return setting, nil
}

// Refresh reads the setting from the platform API and stores it. It fails
// when the API call fails, even if the setting is already cached.
func (s *Service) Refresh(ctx context.Context, req Request) error {
	if req.ID == "" {
		return fmt.Errorf("system settings id is required")
	}
	err := cacheditem.Refresh(ctx, s.store, req.Key(), func(ctx context.Context) (SystemSettings, error) {
		return s.fetchFromServer(ctx, req.ID)
	}, s.storeOptions()...)
	if err != nil {
		return fmt.Errorf("refresh system settings %s: %w", req.ID, err)
	}
	return nil
}

func (s *Service) storeOptions() []cacheditem.Option[SystemSettings] {
	opts := []cacheditem.Option[SystemSettings]{
		// A setting without id is what the platform answers for unknown ids.
		cacheditem.WithEmptyCheck(func(v SystemSettings) bool { return v.ID == "" }),
	}
	if s.config.TTL > 0 {
		opts = append(opts, cacheditem.WithTTL[SystemSettings](s.config.TTL))
	}
	return opts
}

// Handle implements api.Handler.
func (s *Service) Handle(ctx context.Context, req Request) (SystemSettings, error) {
	return s.GetSystemSettings(ctx, req)
}

type envelope struct {
	Response SystemSettings `json:"response"`
}

func (s *Service) fetchFromServer(ctx context.Context, id string) (SystemSettings, error) {
	result, err := api.Fetch[envelope](ctx, s.client, api.Request{
		Method:   http.MethodGet,
		Path:     s.config.APIPath + "/read/" + url.PathEscape(id),
		Endpoint: "system-settings.read",
	})
	if err != nil {
		return SystemSettings{}, err
	}
	return result.Response, nil
}

func (s *Service) fetchFromAsset(id string) (SystemSettings, error) {
	name := path.Join(s.config.AssetDir, assetPrefix+id+".json")

	file, err := assets.ReadJSON[struct {
		Result envelope `json:"result"`
	}](s.assets, name)
	if err != nil {
		return SystemSettings{}, err
	}

	s.logger.Debug().Str("asset", name).Msg("Serving bundled system setting")
	return file.Result.Response, nil
}
