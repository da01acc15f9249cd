// Package mock provides an in-memory agent backend for developing the UI
// without a running desktop agent. Enable it with KEYDECK_MOCK_MODE.
package mock

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/keydeck/keydeck/internal/accounts"
	"github.com/keydeck/keydeck/internal/catalog"
	"github.com/keydeck/keydeck/internal/license"
	"github.com/keydeck/keydeck/pkg/agent"
)

// Config shapes the generated catalog.
type Config struct {
	GameCount     int
	OnlinePercent float64
	// StartActivated seeds the backend with an already-active license.
	StartActivated bool
	Plan           string
}

var DefaultConfig = Config{
	GameCount:     64,
	OnlinePercent: 0.4,
	Plan:          "lifetime",
}

var gameNames = []string{
	"Iron Harvest", "Deep Rock Galactic", "Hades", "Celeste", "Dead Cells",
	"Factorio", "RimWorld", "Stardew Valley", "Terraria", "Valheim",
	"Subnautica", "Outer Wilds", "Hollow Knight", "Cuphead", "Noita",
	"Slay the Spire", "Darkest Dungeon", "Risk of Rain", "Gunfire Reborn",
	"Project Zomboid", "Kenshi", "Mount and Blade", "Battlebit", "Foxhole",
	"Barotrauma", "Raft", "Grounded", "Satisfactory", "Dyson Sphere Program",
	"Oxygen Not Included", "Frostpunk", "This War of Mine", "Invisible Inc",
}

var accountNames = []string{"mainacct", "smurf01", "familyshare"}

// Backend is the in-memory implementation of the session's collaborator
// contract.
type Backend struct {
	mu      sync.Mutex
	rng     *rand.Rand
	record  *license.Record
	games   []catalog.Item
	byID    map[string]*catalog.Item
	roster  []accounts.Account
	lastKey string
}

// NewBackend generates a catalog and seeds the license state.
func NewBackend(cfg Config) *Backend {
	if cfg.GameCount <= 0 {
		cfg.GameCount = DefaultConfig.GameCount
	}
	if cfg.Plan == "" {
		cfg.Plan = DefaultConfig.Plan
	}

	b := &Backend{
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
		byID: make(map[string]*catalog.Item),
		roster: []accounts.Account{
			{SteamID: "76561198000000001", AccountName: accountNames[0], MostRecent: true},
			{SteamID: "76561198000000002", AccountName: accountNames[1]},
			{SteamID: "76561198000000003", AccountName: accountNames[2]},
		},
	}

	for i := 0; i < cfg.GameCount; i++ {
		name := gameNames[i%len(gameNames)]
		if i >= len(gameNames) {
			name = fmt.Sprintf("%s %d", name, i/len(gameNames)+1)
		}
		item := catalog.Item{
			RecordID:        fmt.Sprintf("mock-%04d", i+1),
			AppID:           int64(200000 + b.rng.Intn(800000)),
			Name:            name,
			OnlineSupported: b.rng.Float64() < cfg.OnlinePercent,
			Username:        accountNames[i%len(accountNames)],
			Password:        fmt.Sprintf("pw-%06d", b.rng.Intn(1000000)),
			Notes:           "Demo catalog entry.",
		}
		b.games = append(b.games, item)
	}
	// Index after the slice is fully built; appending above may reallocate
	// the backing array and strand earlier pointers.
	for i := range b.games {
		b.byID[b.games[i].RecordID] = &b.games[i]
	}

	if cfg.StartActivated {
		b.record = activeMockRecord(cfg.Plan, b.roster[0].SteamID, "MOCK-AAAA-BBBB-CCCC")
	} else {
		b.record = &license.Record{Status: license.StatusNotActivated}
	}

	log.Info().Int("games", len(b.games)).Bool("activated", cfg.StartActivated).Msg("Mock backend ready")
	return b
}

func activeMockRecord(plan, steamID, key string) *license.Record {
	days := 365
	return &license.Record{
		Status:     license.StatusActive,
		Plan:       plan,
		ExpiryDate: time.Now().AddDate(1, 0, 0).Format("2006-01-02"),
		DaysLeft:   &days,
		SteamID:    steamID,
		Online:     true,
		Key:        key,
	}
}

func (b *Backend) CheckLicense(ctx context.Context) (*license.Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r := *b.record
	return &r, nil
}

// ActivateLicense accepts any key with at least three dash-separated groups.
func (b *Backend) ActivateLicense(ctx context.Context, cdKey, steamID string) (*agent.ActivateResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(strings.Split(cdKey, "-")) < 3 {
		return &agent.ActivateResult{
			Error: "invalid_key",
			Detail: &agent.ActivateDetail{Message: "That key does not look valid. Expected format XXXX-XXXX-XXXX."},
		}, nil
	}

	b.lastKey = cdKey
	b.record = activeMockRecord(DefaultConfig.Plan, steamID, cdKey)
	return &agent.ActivateResult{OK: true, Status: "ok"}, nil
}

func (b *Backend) ListGames(ctx context.Context) ([]catalog.Item, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]catalog.Item, len(b.games))
	copy(out, b.games)
	return out, nil
}

func (b *Backend) GetGame(ctx context.Context, recordID string) (*catalog.Item, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	item, ok := b.byID[recordID]
	if !ok {
		return nil, fmt.Errorf("unknown record %q", recordID)
	}
	out := *item
	return &out, nil
}

func (b *Backend) RefreshGames(ctx context.Context) (*agent.RefreshResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return &agent.RefreshResult{OK: true, Count: len(b.games)}, nil
}

func (b *Backend) ListAccounts(ctx context.Context) ([]accounts.Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]accounts.Account, len(b.roster))
	copy(out, b.roster)
	return out, nil
}

func (b *Backend) FetchLatestCode(ctx context.Context, username string) (*agent.CodeResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.record.Status != license.StatusActive {
		return &agent.CodeResult{Error: "license_" + string(b.record.Status)}, nil
	}
	known := false
	for _, a := range b.roster {
		if a.AccountName == username {
			known = true
			break
		}
	}
	if !known {
		return &agent.CodeResult{Status: "no_match"}, nil
	}

	const alphabet = "23456789BCDFGHJKMNPQRTVWXY"
	code := make([]byte, 5)
	for i := range code {
		code[i] = alphabet[b.rng.Intn(len(alphabet))]
	}
	return &agent.CodeResult{Status: "ok", Code: string(code)}, nil
}

func (b *Backend) Login(ctx context.Context, recordID string) (*agent.ActionResult, error) {
	return b.platformAction(recordID)
}

func (b *Backend) AddToPlatform(ctx context.Context, recordID string) (*agent.ActionResult, error) {
	return b.platformAction(recordID)
}

func (b *Backend) RemoveFromPlatform(ctx context.Context, recordID string) (*agent.ActionResult, error) {
	return b.platformAction(recordID)
}

func (b *Backend) platformAction(recordID string) (*agent.ActionResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.record.Status != license.StatusActive {
		return &agent.ActionResult{Error: "license_" + string(b.record.Status)}, nil
	}
	if _, ok := b.byID[recordID]; !ok {
		return &agent.ActionResult{Error: "unknown_record"}, nil
	}
	return &agent.ActionResult{OK: true, Status: "ok"}, nil
}

// SetLicenseStatus flips the mock license state, for demoing expiry and
// revocation flows.
func (b *Backend) SetLicenseStatus(status license.Status) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if status == license.StatusActive {
		b.record = activeMockRecord(DefaultConfig.Plan, b.roster[0].SteamID, b.lastKey)
		return
	}
	b.record = &license.Record{Status: status, ExpiryDate: b.record.ExpiryDate, Key: b.lastKey}
}
