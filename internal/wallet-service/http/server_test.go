package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/radieske/turtle-race-platform/internal/wallet-service/dto"
	"github.com/radieske/turtle-race-platform/internal/wallet-service/repo"
)

// memRepo reproduz as regras do repositório Postgres em memória
type memRepo struct {
	balances     map[string]int64
	reservations map[string]int64  // ref -> amount (PENDING)
	settled      map[string]string // ref -> status final
	payouts      map[string]bool
}

func newMemRepo() *memRepo {
	return &memRepo{
		balances:     map[string]int64{},
		reservations: map[string]int64{},
		settled:      map[string]string{},
		payouts:      map[string]bool{},
	}
}

func (m *memRepo) GetOrCreateWallet(_ context.Context, userID string) (string, int64, error) {
	if _, ok := m.balances[userID]; !ok {
		m.balances[userID] = 0
	}
	return "w-" + userID, m.balances[userID], nil
}

func (m *memRepo) Deposit(_ context.Context, userID string, amount int64, _ string) (string, int64, error) {
	m.balances[userID] += amount
	return "w-" + userID, m.balances[userID], nil
}

func (m *memRepo) Reserve(_ context.Context, userID string, amount int64, ref string) (string, error) {
	bal, ok := m.balances[userID]
	if !ok {
		return "", repo.ErrNotFound
	}
	if _, ok := m.reservations[ref]; ok {
		return "r-" + ref, nil
	}
	if bal < amount {
		return "", repo.ErrInsufficientFunds
	}
	m.balances[userID] -= amount
	m.reservations[ref] = amount
	return "r-" + ref, nil
}

func (m *memRepo) Commit(_ context.Context, _ string, ref string) error {
	if _, ok := m.reservations[ref]; !ok {
		return repo.ErrNotFound
	}
	if m.settled[ref] == "" {
		m.settled[ref] = "COMMITTED"
	}
	return nil
}

func (m *memRepo) Refund(_ context.Context, userID, ref string) error {
	amount, ok := m.reservations[ref]
	if !ok {
		return repo.ErrNotFound
	}
	if m.settled[ref] == "" {
		m.settled[ref] = "REFUNDED"
		m.balances[userID] += amount
	}
	return nil
}

func (m *memRepo) Payout(_ context.Context, userID string, amount int64, ref string) (string, int64, error) {
	if _, ok := m.balances[userID]; !ok {
		return "", 0, repo.ErrNotFound
	}
	if !m.payouts[ref] {
		m.payouts[ref] = true
		m.balances[userID] += amount
	}
	return "w-" + userID, m.balances[userID], nil
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestWalletFlow(t *testing.T) {
	m := newMemRepo()
	var paid int64
	s := NewServer(zap.NewNop(), m)
	s.OnPayout = func(a int64) { paid += a }
	h := s.Router()

	rec := post(t, h, "/wallet/deposit", `{"userId":"u1","amount":10000}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("deposit status = %d", rec.Code)
	}
	var wr dto.WalletResponse
	_ = json.NewDecoder(rec.Body).Decode(&wr)
	if wr.Balance != 10000 || wr.BalanceDisplay != "10,000원" {
		t.Fatalf("deposit response = %+v", wr)
	}

	if rec := post(t, h, "/wallet/reserve", `{"userId":"u1","amount":5000,"external_ref":"bet-1"}`); rec.Code != http.StatusOK {
		t.Fatalf("reserve status = %d", rec.Code)
	}
	if rec := post(t, h, "/wallet/reserve", `{"userId":"u1","amount":50000,"external_ref":"bet-2"}`); rec.Code != http.StatusConflict {
		t.Fatalf("insufficient funds status = %d", rec.Code)
	}
	if rec := post(t, h, "/wallet/commit", `{"userId":"u1","external_ref":"bet-1"}`); rec.Code != http.StatusOK {
		t.Fatalf("commit status = %d", rec.Code)
	}

	// prêmio creditado uma vez só
	for i := 0; i < 2; i++ {
		if rec := post(t, h, "/wallet/payout", `{"userId":"u1","amount":12500,"external_ref":"payout:bet-1"}`); rec.Code != http.StatusOK {
			t.Fatalf("payout status = %d", rec.Code)
		}
	}
	if m.balances["u1"] != 10000-5000+12500 {
		t.Fatalf("balance = %d", m.balances["u1"])
	}
	if paid != 25000 {
		// o callback conta requisições atendidas; a idempotência é do repositório
		t.Fatalf("payout callback total = %d", paid)
	}
}

func TestWalletValidation(t *testing.T) {
	h := NewServer(zap.NewNop(), newMemRepo()).Router()

	cases := []struct {
		name string
		path string
		body string
		want int
	}{
		{"bad json", "/wallet/deposit", `{`, http.StatusBadRequest},
		{"zero deposit", "/wallet/deposit", `{"userId":"u1","amount":0}`, http.StatusBadRequest},
		{"reserve without ref", "/wallet/reserve", `{"userId":"u1","amount":100}`, http.StatusBadRequest},
		{"reserve unknown wallet", "/wallet/reserve", `{"userId":"nobody","amount":100,"external_ref":"x"}`, http.StatusNotFound},
		{"commit unknown ref", "/wallet/commit", `{"userId":"u1","external_ref":"missing"}`, http.StatusNotFound},
		{"payout without amount", "/wallet/payout", `{"userId":"u1","external_ref":"p"}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if rec := post(t, h, tc.path, tc.body); rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestGetWallet(t *testing.T) {
	h := NewServer(zap.NewNop(), newMemRepo()).Router()

	req := httptest.NewRequest(http.MethodGet, "/wallet", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing userId status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/wallet?userId=u9", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var wr dto.WalletResponse
	_ = json.NewDecoder(rec.Body).Decode(&wr)
	if wr.WalletID != "w-u9" || wr.Balance != 0 || wr.BalanceDisplay != "0원" {
		t.Fatalf("response = %+v", wr)
	}
}
