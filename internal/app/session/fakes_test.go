package session_test

import (
	"errors"
	"sync"

	"github.com/pion/webrtc/v4"

	"github.com/Neerajupadhayay2004/smart-home-automation/internal/core"
	"github.com/Neerajupadhayay2004/smart-home-automation/internal/domain"
	"github.com/Neerajupadhayay2004/smart-home-automation/internal/events"
)

type fakeStream struct {
	audio bool
	video bool
}

func (s *fakeStream) HasAudio() bool { return s.audio }
func (s *fakeStream) HasVideo() bool { return s.video }

type fakePeer struct {
	mu          sync.Mutex
	closed      bool
	controlOpen bool
	sent        [][]byte
	candidates  int
	attached    []webrtc.TrackLocal
	detached    int
	offerErr    error
	attachErr   error

	onICE        func(webrtc.ICECandidateInit)
	onConnected  func(core.MediaStream)
	onControlMsg func([]byte)
	onClosed     func()
}

func (p *fakePeer) ApplyOfferAndCreateAnswer(webrtc.SessionDescription) (*webrtc.SessionDescription, error) {
	if p.offerErr != nil {
		return nil, p.offerErr
	}
	return &webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: "v=0 fake answer"}, nil
}

func (p *fakePeer) ApplyAnswer(webrtc.SessionDescription) error { return nil }

func (p *fakePeer) AddICECandidate(webrtc.ICECandidateInit) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.candidates++
	return nil
}

func (p *fakePeer) SendControl(payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.controlOpen {
		return core.ErrControlNotReady
	}
	p.sent = append(p.sent, payload)
	return nil
}

func (p *fakePeer) ControlReady() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.controlOpen
}

func (p *fakePeer) AttachAudio(track webrtc.TrackLocal) error {
	if p.attachErr != nil {
		return p.attachErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.attached = append(p.attached, track)
	return nil
}

func (p *fakePeer) DetachAudio() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.detached++
}

func (p *fakePeer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}

func (p *fakePeer) OnICECandidate(fn func(webrtc.ICECandidateInit)) { p.onICE = fn }
func (p *fakePeer) OnConnected(fn func(core.MediaStream))          { p.onConnected = fn }
func (p *fakePeer) OnControlMessage(fn func([]byte))               { p.onControlMsg = fn }
func (p *fakePeer) OnClosed(fn func())                             { p.onClosed = fn }

func (p *fakePeer) openControl() {
	p.mu.Lock()
	p.controlOpen = true
	p.mu.Unlock()
}

func (p *fakePeer) connect(stream core.MediaStream) { p.onConnected(stream) }

func (p *fakePeer) sentCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sent)
}

func (p *fakePeer) lastSent() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.sent) == 0 {
		return nil
	}
	return p.sent[len(p.sent)-1]
}

type fakeFactory struct {
	mu      sync.Mutex
	peers   map[domain.CameraID]*fakePeer
	created int
	err     error
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{peers: make(map[domain.CameraID]*fakePeer)}
}

func (f *fakeFactory) NewPeer(id domain.CameraID) (core.MediaPeer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	p := &fakePeer{}
	f.peers[id] = p
	f.created++
	return p, nil
}

func (f *fakeFactory) peer(id domain.CameraID) *fakePeer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.peers[id]
}

func (f *fakeFactory) createdCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created
}

type fakeSender struct {
	mu   sync.Mutex
	sent []any
}

func (s *fakeSender) Send(v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, v)
}

func (s *fakeSender) messages() []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]any(nil), s.sent...)
}

var errNoDevice = errors.New("no capture device")

type fakeMic struct {
	mu     sync.Mutex
	opens  int
	closes int
	err    error
}

func (m *fakeMic) Open() (webrtc.TrackLocal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.opens++
	track, err := webrtc.NewTrackLocalStaticRTP(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus, ClockRate: 48000, Channels: 2},
		"audio", "microphone",
	)
	if err != nil {
		return nil, err
	}
	return track, nil
}

func (m *fakeMic) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closes++
	return nil
}

func (m *fakeMic) counts() (opens, closes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opens, m.closes
}

// eventRecorder captures every published event for assertions.
type eventRecorder struct {
	mu  sync.Mutex
	got map[string][]any
}

func recordEvents(bus *events.Bus) *eventRecorder {
	r := &eventRecorder{got: make(map[string][]any)}
	for _, name := range events.All() {
		r.subscribe(bus, name)
	}
	return r
}

func (r *eventRecorder) subscribe(bus *events.Bus, name string) {
	bus.On(name, func(payload any) {
		r.mu.Lock()
		r.got[name] = append(r.got[name], payload)
		r.mu.Unlock()
	})
}

func (r *eventRecorder) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.got[name])
}

func (r *eventRecorder) last(name string) any {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.got[name]
	if len(list) == 0 {
		return nil
	}
	return list[len(list)-1]
}
