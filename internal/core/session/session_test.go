package session

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/dawnd/internal/core/clock"
	"github.com/lcalzada-xor/dawnd/internal/core/decision"
	"github.com/lcalzada-xor/dawnd/internal/core/domain"
	"github.com/lcalzada-xor/dawnd/internal/core/replication"
	"github.com/lcalzada-xor/dawnd/internal/core/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mac(t *testing.T, s string) domain.MAC {
	t.Helper()
	m, err := domain.ParseMAC(s)
	require.NoError(t, err)
	return m
}

// fakeRadio satisfies ports.RadioManager, recording every call it
// receives and returning canned responses set on its fields.
type fakeRadio struct {
	mu sync.Mutex

	notifyStatuses []int

	clientsReport domain.ClientsReport
	clientsErr    error

	neighborReport string

	busy, total uint64
	chanUtilErr error

	disassocCalls []domain.DisassocImminent
	disassocIface []string
	delClientCalls []domain.DelClient
	delClientIface []string
	beaconReqs     []domain.BeaconRequest
}

func (f *fakeRadio) Notifications(iface string) (<-chan domain.Notification, error) {
	return make(chan domain.Notification), nil
}

func (f *fakeRadio) GetClients(ctx context.Context, iface string) (domain.ClientsReport, error) {
	return f.clientsReport, f.clientsErr
}

func (f *fakeRadio) RRMNeighborReportGetOwn(ctx context.Context, iface string) (string, error) {
	return f.neighborReport, nil
}

func (f *fakeRadio) GetChannelUtilization(ctx context.Context, iface string) (uint64, uint64, error) {
	return f.busy, f.total, f.chanUtilErr
}

func (f *fakeRadio) RRMNeighborReportSet(ctx context.Context, iface string, entries []domain.NeighborReportEntry) error {
	return nil
}

func (f *fakeRadio) RRMBeaconRequest(ctx context.Context, iface string, req domain.BeaconRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.beaconReqs = append(f.beaconReqs, req)
	return nil
}

func (f *fakeRadio) BSSMgmtEnable(ctx context.Context, iface string, flags domain.BSSMgmtEnable) error {
	return nil
}

func (f *fakeRadio) DelClient(ctx context.Context, iface string, req domain.DelClient) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delClientCalls = append(f.delClientCalls, req)
	f.delClientIface = append(f.delClientIface, iface)
	return nil
}

func (f *fakeRadio) WNMDisassocImminent(ctx context.Context, iface string, req domain.DisassocImminent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disassocCalls = append(f.disassocCalls, req)
	f.disassocIface = append(f.disassocIface, iface)
	return nil
}

func (f *fakeRadio) NotifyResponse(ctx context.Context, iface string, status int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifyStatuses = append(f.notifyStatuses, status)
	return nil
}

func (f *fakeRadio) Discover(ctx context.Context) ([]string, error) {
	return nil, nil
}

func (f *fakeRadio) beaconReqCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.beaconReqs)
}

type fakeTransport struct{}

func (fakeTransport) Broadcast(ctx context.Context, ev domain.Event) error { return nil }
func (fakeTransport) Incoming() <-chan domain.Event                       { return nil }
func (fakeTransport) Close() error                                        { return nil }

func newTestManager(t *testing.T) (*Manager, *fakeRadio, *decision.Engine) {
	probes := store.NewProbeStore()
	clients := store.NewClientStore()
	aps := store.NewAPStore()
	denied := store.NewDeniedStore()
	macs, err := store.NewMACAllowList(t.TempDir() + "/mac_list")
	require.NoError(t, err)

	w := domain.DefaultWeights()
	engine := &decision.Engine{
		Probes: probes, Clients: clients, APs: aps, Denied: denied, MACs: macs,
		Clock:   clock.System{},
		Weights: func() domain.Weights { return w },
	}

	peers := replication.NewManager(probes, clients, aps, macs, testLogger())
	peers.AddTransport(fakeTransport{})

	radio := &fakeRadio{}
	m := NewManager(radio, engine, peers, clock.System{}, testLogger(), "peer-1")
	return m, radio, engine
}

// session handle() threads the handler's verdict into notify_response's
// status argument: allow maps to wlanStatusSuccess, deny to the
// configured reason code.
func TestHandleThreadsVerdictStatusIntoNotifyResponse(t *testing.T) {
	m, radio, engine := newTestManager(t)
	w := engine.Weights()
	w.MinProbeCount = 2
	engine.Weights = func() domain.Weights { return w }
	iface := "wlan0"
	m.mu.Lock()
	s := m.newSession(iface)
	s.state.State = domain.SessionSubscribed
	m.sessions[iface] = s
	m.mu.Unlock()

	client := mac(t, "aa:aa:aa:aa:aa:01")
	bssid := mac(t, "bb:bb:bb:bb:bb:01")

	// auth without a prior probe: denied.
	s.handle(context.Background(), domain.Notification{Method: domain.MethodAuth, Address: client, BSSID: bssid})
	require.Len(t, radio.notifyStatuses, 1)
	assert.Equal(t, engine.Weights().DenyAuthReason, radio.notifyStatuses[0])

	// probe: counter 1 is below min_probe_count 2 on first sight,
	// denied with the ap-unable-to-handle reason.
	s.handle(context.Background(), domain.Notification{Method: domain.MethodProbe, Address: client, BSSID: bssid})
	require.Len(t, radio.notifyStatuses, 2)
	assert.NotEqual(t, wlanStatusSuccess, radio.notifyStatuses[1])

	// second probe bumps the counter to the threshold with no
	// competing AP on record: allowed.
	s.handle(context.Background(), domain.Notification{Method: domain.MethodProbe, Address: client, BSSID: bssid})
	require.Len(t, radio.notifyStatuses, 3)
	assert.Equal(t, wlanStatusSuccess, radio.notifyStatuses[2])
}

// PollClients refreshes the session's own published fields and
// repopulates ClientStore/APStore from the radio manager's report.
func TestPollClientsPopulatesStoresAndSessionState(t *testing.T) {
	m, radio, engine := newTestManager(t)
	iface := "wlan0"
	bssid := mac(t, "bb:bb:bb:bb:bb:02")
	client := mac(t, "aa:aa:aa:aa:aa:02")

	m.mu.Lock()
	s := m.newSession(iface)
	s.state.State = domain.SessionSubscribed
	m.sessions[iface] = s
	m.mu.Unlock()

	radio.clientsReport = domain.ClientsReport{
		BSSID: bssid, SSID: "home", HTSupport: true, VHTSupport: true,
		ChannelUtilization: 10,
		Clients:            []domain.ClientInfo{{Client: client, HT: true}},
	}
	radio.neighborReport = "deadbeef"
	radio.busy, radio.total = 100, 1000

	// First poll: establishes the baseline counters, no averaging yet.
	m.PollClients(context.Background(), 2)

	got, ok := engine.Clients.Get(client)
	require.True(t, ok)
	assert.Equal(t, bssid, got.BSSID)

	ap, ok := engine.APs.Get(bssid)
	require.True(t, ok)
	assert.True(t, ap.Local)
	assert.Equal(t, 1, ap.StationCount)

	s.mu.Lock()
	assert.Equal(t, bssid, s.state.BSSID)
	assert.Equal(t, "home", s.state.SSID)
	assert.Equal(t, "deadbeef", s.state.NeighborReport)
	assert.Equal(t, uint64(100), s.state.ChanUtil.LastBusyTime)
	s.mu.Unlock()

	// Second poll advances the counters; with avgPeriod=2 one sample
	// isn't enough yet to publish an average.
	radio.busy, radio.total = 150, 1500
	m.PollClients(context.Background(), 2)
	s.mu.Lock()
	assert.Equal(t, 1, s.state.ChanUtil.Samples)
	s.mu.Unlock()
}

func TestPollClientsSkipsUnsubscribedSessions(t *testing.T) {
	m, radio, engine := newTestManager(t)
	iface := "wlan0"
	m.mu.Lock()
	s := m.newSession(iface)
	m.sessions[iface] = s // left in SessionWaitingForObject
	m.mu.Unlock()

	radio.clientsReport = domain.ClientsReport{BSSID: mac(t, "bb:bb:bb:bb:bb:03")}

	m.PollClients(context.Background(), 2)

	assert.Equal(t, 0, engine.APs.Len())
}

// DispatchKickSweep routes each due KickDecision to the session whose
// local AP matches the client's current BSSID, always sending the BTM
// hint and only forcing a deauth when Kick is set.
func TestDispatchKickSweepRoutesToOwningSessionAndGatesDelClient(t *testing.T) {
	m, radio, engine := newTestManager(t)
	iface := "wlan0"
	bssid := mac(t, "bb:bb:bb:bb:bb:04")
	client := mac(t, "aa:aa:aa:aa:aa:04")
	target := mac(t, "bb:bb:bb:bb:bb:05")

	m.mu.Lock()
	s := m.newSession(iface)
	s.state.BSSID = bssid
	m.sessions[iface] = s
	m.mu.Unlock()

	engine.Clients.Insert(domain.ClientEntry{BSSID: bssid, Client: client}, store.InsertPolicy{})

	decisions := []decision.KickDecision{
		{Client: client, Target: domain.APEntry{BSSID: target}, Kick: false, BanTime: 30},
	}
	m.DispatchKickSweep(context.Background(), decisions)

	require.Len(t, radio.disassocCalls, 1)
	assert.Equal(t, iface, radio.disassocIface[0])
	assert.Equal(t, client, radio.disassocCalls[0].Addr)
	assert.Empty(t, radio.delClientCalls)

	decisions[0].Kick = true
	m.DispatchKickSweep(context.Background(), decisions)

	require.Len(t, radio.delClientCalls, 1)
	assert.Equal(t, iface, radio.delClientIface[0])
	assert.Equal(t, client, radio.delClientCalls[0].Addr)
}

func TestDispatchKickSweepSkipsClientWithNoLocalSession(t *testing.T) {
	m, radio, engine := newTestManager(t)
	client := mac(t, "aa:aa:aa:aa:aa:05")
	target := mac(t, "bb:bb:bb:bb:bb:06")

	engine.Clients.Insert(domain.ClientEntry{BSSID: mac(t, "bb:bb:bb:bb:bb:07"), Client: client}, store.InsertPolicy{})

	m.DispatchKickSweep(context.Background(), []decision.KickDecision{
		{Client: client, Target: domain.APEntry{BSSID: target}, Kick: true, BanTime: 30},
	})

	assert.Empty(t, radio.disassocCalls)
	assert.Empty(t, radio.delClientCalls)
}

// RequestBeaconReports sends one rrm_beacon_req per client currently
// associated to each subscribed session's local AP, and none to
// clients associated elsewhere or to unsubscribed sessions.
func TestRequestBeaconReportsTargetsOnlyLocallyAssociatedClients(t *testing.T) {
	m, radio, engine := newTestManager(t)
	iface := "wlan0"
	bssid := mac(t, "bb:bb:bb:bb:bb:08")
	local := mac(t, "aa:aa:aa:aa:aa:06")
	elsewhere := mac(t, "aa:aa:aa:aa:aa:07")

	m.mu.Lock()
	s := m.newSession(iface)
	s.state.State = domain.SessionSubscribed
	s.state.BSSID = bssid
	m.sessions[iface] = s
	m.mu.Unlock()

	engine.Clients.Insert(domain.ClientEntry{BSSID: bssid, Client: local}, store.InsertPolicy{})
	engine.Clients.Insert(domain.ClientEntry{BSSID: mac(t, "bb:bb:bb:bb:bb:09"), Client: elsewhere}, store.InsertPolicy{})

	m.RequestBeaconReports(context.Background())

	require.Equal(t, 1, radio.beaconReqCount())
	assert.Equal(t, local, radio.beaconReqs[0].Addr)
}
