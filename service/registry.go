package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dapphub-labs/dapphub/cache"
	"github.com/dapphub-labs/dapphub/config"
	"github.com/dapphub-labs/dapphub/ledger"
	"github.com/dapphub-labs/dapphub/logging"
	"github.com/dapphub-labs/dapphub/metrics"
	"github.com/dapphub-labs/dapphub/models"
	"github.com/dapphub-labs/dapphub/util"
	"github.com/dapphub-labs/dapphub/walrus"
)

const (
	multiGetChunkSize = 50
	enrichConcurrency = 8

	cacheKeyAllDapps = "dapps/all"
)

// Registry materializes directory entries from the on-ledger registry.
type Registry interface {
	ListDapps(ctx context.Context) ([]*models.Dapp, error)
	GetDapp(ctx context.Context, ref string) (*models.Dapp, error)
}

type RegistryService struct {
	reader       ledger.Reader
	store        walrus.Store
	cacheService cache.Cache
	config       *config.Config
}

func NewRegistryService(reader ledger.Reader, store walrus.Store, cacheService cache.Cache, cfg *config.Config) Registry {
	return &RegistryService{
		reader:       reader,
		store:        store,
		cacheService: cacheService,
		config:       cfg,
	}
}

// tableRef is the on-ledger shape of a nested keyed collection handle.
type tableRef struct {
	Fields struct {
		ID struct {
			ID string `json:"id"`
		} `json:"id"`
	} `json:"fields"`
}

func (t *tableRef) id() string {
	return t.Fields.ID.ID
}

type registryFields struct {
	Dapps      tableRef `json:"dapps"`
	Developers tableRef `json:"developers"`
}

type metricFields struct {
	Users24h  string  `json:"users_24h"`
	Users7d   string  `json:"users_7d"`
	Users30d  string  `json:"users_30d"`
	Volume24h string  `json:"volume_24h"`
	Volume7d  string  `json:"volume_7d"`
	Volume30d string  `json:"volume_30d"`
	Tx24h     string  `json:"tx_24h"`
	Tx7d      string  `json:"tx_7d"`
	Tx30d     string  `json:"tx_30d"`
	TVL       *string `json:"tvl"`
}

type dappFields struct {
	Name        string `json:"name"`
	Tagline     string `json:"tagline"`
	Category    string `json:"category"`
	Website     string `json:"website"`
	Repo        string `json:"repo"`
	Twitter     string `json:"twitter"`
	Discord     string `json:"discord"`
	Description string `json:"description"` // blob id of the long-form description
	Metrics     struct {
		Fields metricFields `json:"fields"`
	} `json:"metrics"`
	Rank        string   `json:"rank"`
	RankDelta   string   `json:"rank_delta"`
	Rating      string   `json:"rating"` // integer scaled by 100
	ReviewCount string   `json:"review_count"`
	UpvoteCount string   `json:"upvote_count"`
	Reviews     tableRef `json:"reviews"`
	Developer   string   `json:"developer"`
	Deleted     bool     `json:"deleted"`
}

type developerFields struct {
	Name     string `json:"name"`
	Bio      string `json:"bio"` // blob id
	Avatar   string `json:"avatar"`
	Verified bool   `json:"verified"`
	Website  string `json:"website"`
	Twitter  string `json:"twitter"`
}

// fieldWrapper is the dynamic-field value envelope wrapping a table entry's
// own fields.
type fieldWrapper struct {
	Value *struct {
		Fields json.RawMessage `json:"fields"`
	} `json:"value"`
}

// unwrapEntryFields reaches an entry's own fields through the dynamic-field
// value wrapper, tolerating objects fetched directly (already unwrapped).
func unwrapEntryFields(raw json.RawMessage) json.RawMessage {
	var wrapper fieldWrapper
	if err := json.Unmarshal(raw, &wrapper); err == nil && wrapper.Value != nil && len(wrapper.Value.Fields) > 0 {
		return wrapper.Value.Fields
	}
	return raw
}

// ListDapps returns the full current directory. Per-item policy is best
// effort: a malformed or temporarily unreachable entry degrades or is
// dropped, it never blanks the whole listing.
func (s *RegistryService) ListDapps(ctx context.Context) ([]*models.Dapp, error) {
	if cached, found := s.cacheService.Get(cacheKeyAllDapps); found {
		dapps := make([]*models.Dapp, 0)
		if err := json.Unmarshal(cached, &dapps); err == nil {
			return dapps, nil
		}
	}

	dappTableID, devTableID, err := s.registryTables(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := s.reader.GetDynamicFields(ctx, dappTableID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, entry.ObjectID)
	}

	dapps := make([]*models.Dapp, 0, len(ids))
	for start := 0; start < len(ids); start += multiGetChunkSize {
		end := start + multiGetChunkSize
		if end > len(ids) {
			end = len(ids)
		}
		objects, err := s.reader.MultiGetObjects(ctx, ids[start:end])
		if err != nil {
			return nil, err
		}
		for _, object := range objects {
			if object == nil {
				continue
			}
			dapp, err := parseDapp(object)
			if err != nil {
				logging.Logger.Errorf("dropping malformed registry entry %s, err=%s", object.ObjectID, err.Error())
				metrics.MalformedDappCounter.Inc()
				continue
			}
			dapps = append(dapps, dapp)
		}
	}

	s.enrichAll(ctx, dapps, devTableID)
	sortDappsByRank(dapps)
	metrics.ListedDappsGauge.Set(float64(len(dapps)))

	if bz, err := json.Marshal(dapps); err == nil {
		s.cacheService.Set(cacheKeyAllDapps, bz)
	}
	return dapps, nil
}

// GetDapp resolves a directory entry by object id or, failing that, by a
// case-insensitive name match over the recent registration-event window.
func (s *RegistryService) GetDapp(ctx context.Context, ref string) (*models.Dapp, error) {
	_, devTableID, err := s.registryTables(ctx)
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(ref, "0x") {
		object, err := s.reader.GetObject(ctx, ref)
		if err == nil {
			dapp, perr := parseDapp(object)
			if perr != nil {
				return nil, perr
			}
			s.enrich(ctx, dapp, devTableID)
			return dapp, nil
		}
		if err != ledger.ErrObjectNotFound {
			return nil, err
		}
		// fall through to the name scan
	}

	eventType := registeredEventType(s.config.LedgerConfig.PackageID)
	events, err := s.reader.QueryEvents(ctx, eventType, s.config.LedgerConfig.GetEventScanLimit(), true)
	if err != nil {
		return nil, err
	}
	for _, ev := range events {
		var payload struct {
			DappID string `json:"dapp_id"`
			Name   string `json:"name"`
		}
		if err := ledger.ParseEventPayload(ev, &payload); err != nil {
			continue
		}
		if !strings.EqualFold(payload.Name, ref) {
			continue
		}
		object, err := s.reader.GetObject(ctx, payload.DappID)
		if err != nil {
			if err == ledger.ErrObjectNotFound {
				return nil, ErrDappNotFound
			}
			return nil, err
		}
		dapp, err := parseDapp(object)
		if err != nil {
			return nil, err
		}
		s.enrich(ctx, dapp, devTableID)
		return dapp, nil
	}
	return nil, ErrDappNotFound
}

func (s *RegistryService) registryTables(ctx context.Context) (dappTableID, devTableID string, err error) {
	registry, err := s.reader.GetObject(ctx, s.config.LedgerConfig.RegistryObjectID)
	if err != nil {
		return "", "", fmt.Errorf("read registry object: %w", err)
	}
	if registry.Content == nil {
		return "", "", fmt.Errorf("registry object %s has no content", s.config.LedgerConfig.RegistryObjectID)
	}
	var fields registryFields
	if err := json.Unmarshal(registry.Content.Fields, &fields); err != nil {
		return "", "", fmt.Errorf("decode registry fields: %w", err)
	}
	if fields.Dapps.id() == "" || fields.Developers.id() == "" {
		return "", "", fmt.Errorf("registry object %s is missing its tables", s.config.LedgerConfig.RegistryObjectID)
	}
	return fields.Dapps.id(), fields.Developers.id(), nil
}

// enrichAll runs per-dapp enrichment with bounded concurrency. Entry order is
// not preserved by the fan-out; the caller re-sorts.
func (s *RegistryService) enrichAll(ctx context.Context, dapps []*models.Dapp, devTableID string) {
	sem := make(chan struct{}, enrichConcurrency)
	var wg sync.WaitGroup
	for _, dapp := range dapps {
		wg.Add(1)
		sem <- struct{}{}
		go func(d *models.Dapp) {
			defer wg.Done()
			defer func() { <-sem }()
			s.enrich(ctx, d, devTableID)
		}(dapp)
	}
	wg.Wait()
}

// enrich resolves a dapp's description blob and developer record. The two
// resolutions are independent and run concurrently; either failing degrades
// that field only and never fails the dapp.
func (s *RegistryService) enrich(ctx context.Context, dapp *models.Dapp, devTableID string) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if dapp.DescriptionRef == "" {
			return
		}
		content, err := s.store.Fetch(ctx, dapp.DescriptionRef)
		if err != nil {
			logging.Logger.Debugf("description blob %s of dapp %s unavailable, keeping ref, err=%s",
				dapp.DescriptionRef, dapp.ID, err.Error())
			dapp.Description = dapp.DescriptionRef
			return
		}
		dapp.Description = content
	}()
	go func() {
		defer wg.Done()
		dapp.Developer = s.resolveDeveloper(ctx, devTableID, dapp.Developer.Addr)
	}()
	wg.Wait()
}

// resolveDeveloper looks the developer up by address in the developer table.
// A failed lookup yields a placeholder record, never an error.
func (s *RegistryService) resolveDeveloper(ctx context.Context, devTableID, addr string) *models.Developer {
	object, err := s.reader.GetDynamicFieldObject(ctx, devTableID, ledger.AddressKey(addr))
	if err != nil {
		if err != ledger.ErrObjectNotFound {
			logging.Logger.Errorf("developer lookup for %s failed, using placeholder, err=%s", addr, err.Error())
		}
		return models.PlaceholderDeveloper(addr)
	}
	if object.Content == nil {
		return models.PlaceholderDeveloper(addr)
	}
	var fields developerFields
	if err := json.Unmarshal(unwrapEntryFields(object.Content.Fields), &fields); err != nil {
		logging.Logger.Errorf("malformed developer record for %s, using placeholder, err=%s", addr, err.Error())
		return models.PlaceholderDeveloper(addr)
	}
	dev := &models.Developer{
		Addr:     util.NormalizeAddress(addr),
		Name:     fields.Name,
		BioRef:   fields.Bio,
		Avatar:   fields.Avatar,
		Verified: fields.Verified,
		Links: models.Links{
			Website: fields.Website,
			Twitter: fields.Twitter,
		},
	}
	if dev.BioRef != "" {
		if content, err := s.store.Fetch(ctx, dev.BioRef); err == nil {
			dev.Bio = content
		} else {
			dev.Bio = dev.BioRef
		}
	}
	return dev
}

func parseDapp(object *ledger.ObjectData) (*models.Dapp, error) {
	if object.Content == nil {
		return nil, fmt.Errorf("%w: object %s has no content", errMalformedDapp, object.ObjectID)
	}
	var fields dappFields
	if err := json.Unmarshal(unwrapEntryFields(object.Content.Fields), &fields); err != nil {
		return nil, fmt.Errorf("%w: %s", errMalformedDapp, err.Error())
	}
	if fields.Name == "" || fields.Developer == "" || fields.Reviews.id() == "" {
		return nil, fmt.Errorf("%w: object %s is missing required fields", errMalformedDapp, object.ObjectID)
	}
	ratingScaled := parseInt64(fields.Rating)
	dapp := &models.Dapp{
		ID:       object.ObjectID,
		Name:     fields.Name,
		Tagline:  fields.Tagline,
		Category: fields.Category,
		Links: models.Links{
			Website: fields.Website,
			Repo:    fields.Repo,
			Twitter: fields.Twitter,
			Discord: fields.Discord,
		},
		DescriptionRef: fields.Description,
		Metrics:        parseMetrics(&fields.Metrics.Fields),
		Rank:           parseInt64(fields.Rank),
		RankDelta:      parseInt64(fields.RankDelta),
		RatingScaled:   ratingScaled,
		Rating:         models.RatingScore(ratingScaled),
		ReviewCount:    parseInt64(fields.ReviewCount),
		UpvoteCount:    parseInt64(fields.UpvoteCount),
		ReviewsTableID: fields.Reviews.id(),
		Developer:      models.PlaceholderDeveloper(util.NormalizeAddress(fields.Developer)),
		Deleted:        fields.Deleted,
	}
	return dapp, nil
}

func parseMetrics(fields *metricFields) models.MetricSnapshot {
	snapshot := models.MetricSnapshot{
		Users: models.WindowedCount{
			Day:   parseUint64(fields.Users24h),
			Week:  parseUint64(fields.Users7d),
			Month: parseUint64(fields.Users30d),
		},
		VolumeUSD: models.WindowedCount{
			Day:   parseUint64(fields.Volume24h),
			Week:  parseUint64(fields.Volume7d),
			Month: parseUint64(fields.Volume30d),
		},
		Transactions: models.WindowedCount{
			Day:   parseUint64(fields.Tx24h),
			Week:  parseUint64(fields.Tx7d),
			Month: parseUint64(fields.Tx30d),
		},
	}
	if fields.TVL != nil {
		tvl := float64(parseUint64(*fields.TVL))
		snapshot.TVLUSD = &tvl
	}
	return snapshot
}

// ledger u64/i64 fields arrive as JSON strings; absence decodes to zero.
func parseUint64(s string) uint64 {
	v, err := util.StringToUint64(s)
	if err != nil {
		return 0
	}
	return v
}

func parseInt64(s string) int64 {
	v, err := util.StringToInt64(s)
	if err != nil {
		return 0
	}
	return v
}

// sortDappsByRank orders the listing by rank; rank 0 means unranked and
// sorts to the tail.
func sortDappsByRank(dapps []*models.Dapp) {
	sort.SliceStable(dapps, func(i, j int) bool {
		a, b := dapps[i], dapps[j]
		if a.Rank == 0 {
			return false
		}
		if b.Rank == 0 {
			return true
		}
		return a.Rank < b.Rank
	})
}
