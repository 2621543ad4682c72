package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xavierca1/leadflow/internal/entity"
)

// memStore mirrors the Postgres repositories: one mutex plays the role of
// the per-company cursor row lock.
type memStore struct {
	mu      sync.Mutex
	tenants map[string]*entity.Tenant
	agents  map[string][]entity.Agent
	cursors map[string]int
	leads   map[string]*entity.Lead
	rules   map[string]*entity.RoutingRule
	subs    map[string]*entity.Subscription
	writes  int

	failAssign error
}

func newMemStore() *memStore {
	return &memStore{
		tenants: map[string]*entity.Tenant{},
		agents:  map[string][]entity.Agent{},
		cursors: map[string]int{},
		leads:   map[string]*entity.Lead{},
		rules:   map[string]*entity.RoutingRule{},
		subs:    map[string]*entity.Subscription{},
	}
}

func (m *memStore) seedTenant(id, key string) *entity.Tenant {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &entity.Tenant{ID: id, Name: id, APIKey: key, CreatedAt: time.Now()}
	m.tenants[id] = t
	return t
}

// tenants

func (m *memStore) Create(ctx context.Context, t *entity.Tenant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tenants[t.ID] = t
	return nil
}

func (m *memStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tenants, id)
	return nil
}

func (m *memStore) FindByID(ctx context.Context, id string) (*entity.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tenants[id]
	if !ok {
		return nil, entity.ErrTenantNotFound
	}
	return t, nil
}

func (m *memStore) FindByAPIKey(ctx context.Context, key string) (*entity.Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tenants {
		if t.APIKey == key {
			return t, nil
		}
	}
	return nil, entity.ErrTenantNotFound
}

// agents, through a wrapper because List collides with the lead repository

type memAgents struct{ *memStore }

func (a memAgents) List(ctx context.Context, companyID string) ([]entity.Agent, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]entity.Agent(nil), a.agents[companyID]...), nil
}

func (a memAgents) Add(ctx context.Context, companyID, name, chatID string) (*entity.Agent, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	ag, err := entity.NewAgent(companyID, name, chatID, len(a.agents[companyID]))
	if err != nil {
		return nil, err
	}
	a.agents[companyID] = append(a.agents[companyID], *ag)
	a.writes++
	return ag, nil
}

func (a memAgents) Remove(ctx context.Context, companyID, agentID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	roster := a.agents[companyID]
	idx := -1
	for i, ag := range roster {
		if ag.ID == agentID {
			idx = i
		}
	}
	if idx < 0 {
		return nil
	}
	rest := append(append([]entity.Agent(nil), roster[:idx]...), roster[idx+1:]...)
	a.agents[companyID] = entity.Repack(rest)
	a.cursors[companyID] = entity.CursorAfterRemoval(a.cursors[companyID], idx, len(rest))
	a.writes++
	return nil
}

func (a memAgents) Reorder(ctx context.Context, companyID string, ids []string) ([]entity.Agent, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	next, changed, err := entity.ApplyOrder(a.agents[companyID], ids)
	if err != nil {
		return nil, err
	}
	if changed {
		a.agents[companyID] = next
		a.writes++
	}
	return append([]entity.Agent(nil), a.agents[companyID]...), nil
}

// assignment

func (m *memStore) AssignNext(ctx context.Context, lead *entity.Lead) (*entity.Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAssign != nil {
		return nil, m.failAssign
	}

	roster := m.agents[lead.CompanyID]
	pick, err := entity.PickNext(roster, m.cursors[lead.CompanyID])
	if err != nil {
		lead.Status = entity.LeadStatusReceived
		m.leads[lead.ID] = cloneLead(lead)
		return nil, err
	}

	lead.AssignTo(pick.Agent, pick.Position)
	m.leads[lead.ID] = cloneLead(lead)
	m.cursors[lead.CompanyID] = pick.Next
	agent := pick.Agent
	return &agent, nil
}

func (m *memStore) RecordUnassigned(ctx context.Context, lead *entity.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	lead.Status = entity.LeadStatusReceived
	m.leads[lead.ID] = cloneLead(lead)
	return nil
}

func (m *memStore) Cursor(ctx context.Context, companyID string) (*entity.RotationCursor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &entity.RotationCursor{CompanyID: companyID, NextIndex: m.cursors[companyID]}, nil
}

// leads

type memLeads struct{ *memStore }

func (l memLeads) UpdateDelivery(ctx context.Context, companyID, leadID, status, channel string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if ld, ok := l.leads[leadID]; ok && ld.CompanyID == companyID {
		ld.Status = status
		ld.DeliveryChannel = channel
	}
	return nil
}

func (l memLeads) FindByID(ctx context.Context, companyID, leadID string) (*entity.Lead, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ld, ok := l.leads[leadID]
	if !ok || ld.CompanyID != companyID {
		return nil, entity.ErrLeadNotFound
	}
	return cloneLead(ld), nil
}

func (l memLeads) List(ctx context.Context, f entity.LeadFilter) (*entity.LeadPage, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []entity.Lead
	for _, ld := range l.leads {
		if ld.CompanyID == f.CompanyID {
			out = append(out, *ld)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return &entity.LeadPage{Leads: out, Total: len(out), Page: f.Page, PageSize: f.PageSize}, nil
}

func (l memLeads) Count(ctx context.Context, companyID string) (int, error) {
	page, _ := l.List(ctx, entity.LeadFilter{CompanyID: companyID})
	return page.Total, nil
}

func (m *memStore) lead(id string) *entity.Lead {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ld, ok := m.leads[id]; ok {
		return cloneLead(ld)
	}
	return nil
}

func cloneLead(l *entity.Lead) *entity.Lead {
	c := *l
	return &c
}

// routing rules

type memRules struct{ *memStore }

func (r memRules) Find(ctx context.Context, companyID string) (*entity.RoutingRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rule, ok := r.rules[companyID]; ok {
		c := *rule
		return &c, nil
	}
	return entity.DefaultRoutingRule(companyID), nil
}

func (r memRules) Upsert(ctx context.Context, rule *entity.RoutingRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *rule
	r.rules[rule.CompanyID] = &c
	return nil
}

// subscriptions

type memSubs struct {
	*memStore
	failFind error
	finds    int
}

func (s *memSubs) Create(ctx context.Context, sub *entity.Subscription) error {
	return s.Upsert(ctx, sub)
}

func (s *memSubs) Upsert(ctx context.Context, sub *entity.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *sub
	s.subs[sub.CompanyID] = &c
	return nil
}

func (s *memSubs) FindByCompanyID(ctx context.Context, companyID string) (*entity.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finds++
	if s.failFind != nil {
		return nil, s.failFind
	}
	sub, ok := s.subs[companyID]
	if !ok {
		return nil, entity.ErrSubscriptionNotFound
	}
	c := *sub
	return &c, nil
}

func (s *memSubs) ExpireBefore(ctx context.Context, now time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for id, sub := range s.subs {
		if sub.Status == entity.SubscriptionActive && sub.EndsAt != nil && sub.EndsAt.Before(now) {
			sub.Status = entity.SubscriptionInactive
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// outbound fakes

type fakeTelegram struct {
	mu    sync.Mutex
	err   error
	delay time.Duration
	sent  []string
}

func (f *fakeTelegram) Send(ctx context.Context, token, chatID, text string) error {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, chatID)
	return nil
}

type fakeFallback struct {
	mu       sync.Mutex
	err      error
	payloads []FallbackPayload
}

func (f *fakeFallback) Dispatch(ctx context.Context, p FallbackPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, p)
	return f.err
}

func (f *fakeFallback) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

type recordedEvents struct {
	mu     sync.Mutex
	events []entity.ChangeEvent
}

func (r *recordedEvents) Publish(ctx context.Context, ev entity.ChangeEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordedEvents) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

func newID() string { return uuid.New().String() }
