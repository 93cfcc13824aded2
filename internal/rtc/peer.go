// Package rtc adapts pion/webrtc to the transport interfaces the
// session manager drives.
package rtc

import (
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/Neerajupadhayay2004/smart-home-automation/internal/core"
	"github.com/Neerajupadhayay2004/smart-home-automation/internal/domain"
)

const controlChannelLabel = "cameraControl"

// Factory builds camera peers sharing one ICE configuration.
type Factory struct {
	cfg webrtc.Configuration
}

func NewFactory(iceServers []string) *Factory {
	if len(iceServers) == 0 {
		iceServers = DefaultICEServers()
	}
	return &Factory{cfg: webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{{URLs: iceServers}},
	}}
}

func DefaultICEServers() []string {
	return []string{"stun:stun.l.google.com:19302"}
}

func (f *Factory) NewPeer(id domain.CameraID) (core.MediaPeer, error) {
	pc, err := webrtc.NewPeerConnection(f.cfg)
	if err != nil {
		return nil, err
	}

	p := &Peer{pc: pc, id: id}

	// The control channel is opened by us as part of establishment;
	// it becomes usable once the SCTP association is up.
	ordered := true
	dc, err := pc.CreateDataChannel(controlChannelLabel, &webrtc.DataChannelInit{Ordered: &ordered})
	if err != nil {
		_ = pc.Close()
		return nil, err
	}
	p.control = dc

	dc.OnOpen(func() {
		log.Info().Str("module", "rtc").Str("camera", string(id)).Msg("control channel open")
	})
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		if fn := p.controlMsgFn(); fn != nil {
			fn(msg.Data)
		}
	})

	pc.OnICECandidate(func(cand *webrtc.ICECandidate) {
		if cand == nil {
			return
		}
		if fn := p.iceFn(); fn != nil {
			fn(cand.ToJSON())
		}
	})

	pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		log.Info().
			Str("module", "rtc").
			Str("camera", string(id)).
			Str("kind", track.Kind().String()).
			Str("track_id", track.ID()).
			Msg("remote track")
		p.mu.Lock()
		p.tracks = append(p.tracks, track)
		p.mu.Unlock()
	})

	pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		log.Info().Str("module", "rtc").Str("camera", string(id)).Str("peer_state", s.String()).Msg("peer state")
		switch s {
		case webrtc.PeerConnectionStateConnected:
			p.fireConnected()
		case webrtc.PeerConnectionStateFailed, webrtc.PeerConnectionStateClosed:
			p.fireClosed()
		}
	})

	return p, nil
}

// Peer is one viewer-to-camera transport. Implements core.MediaPeer.
type Peer struct {
	pc      *webrtc.PeerConnection
	id      domain.CameraID
	control *webrtc.DataChannel

	mu          sync.Mutex
	tracks      []*webrtc.TrackRemote
	audioSender *webrtc.RTPSender

	onICE        func(webrtc.ICECandidateInit)
	onConnected  func(core.MediaStream)
	onControlMsg func([]byte)
	onClosed     func()

	connectedOnce sync.Once
	closedOnce    sync.Once
}

func (p *Peer) OnICECandidate(fn func(webrtc.ICECandidateInit)) {
	p.mu.Lock()
	p.onICE = fn
	p.mu.Unlock()
}

func (p *Peer) OnConnected(fn func(core.MediaStream)) {
	p.mu.Lock()
	p.onConnected = fn
	p.mu.Unlock()
}

func (p *Peer) OnControlMessage(fn func([]byte)) {
	p.mu.Lock()
	p.onControlMsg = fn
	p.mu.Unlock()
}

func (p *Peer) OnClosed(fn func()) {
	p.mu.Lock()
	p.onClosed = fn
	p.mu.Unlock()
}

func (p *Peer) iceFn() func(webrtc.ICECandidateInit) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.onICE
}

func (p *Peer) controlMsgFn() func([]byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.onControlMsg
}

func (p *Peer) fireConnected() {
	p.connectedOnce.Do(func() {
		p.mu.Lock()
		fn := p.onConnected
		stream := &remoteStream{tracks: append([]*webrtc.TrackRemote(nil), p.tracks...)}
		p.mu.Unlock()
		if fn != nil {
			fn(stream)
		}
	})
}

func (p *Peer) fireClosed() {
	p.closedOnce.Do(func() {
		p.mu.Lock()
		fn := p.onClosed
		p.mu.Unlock()
		if fn != nil {
			fn()
		}
	})
}

func (p *Peer) ApplyOfferAndCreateAnswer(offer webrtc.SessionDescription) (*webrtc.SessionDescription, error) {
	if err := p.pc.SetRemoteDescription(offer); err != nil {
		return nil, err
	}
	answer, err := p.pc.CreateAnswer(nil)
	if err != nil {
		return nil, err
	}
	// Trickle ICE: candidates flow through OnICECandidate as they are
	// gathered, so the answer goes out immediately.
	if err := p.pc.SetLocalDescription(answer); err != nil {
		return nil, err
	}
	return &answer, nil
}

func (p *Peer) ApplyAnswer(answer webrtc.SessionDescription) error {
	return p.pc.SetRemoteDescription(answer)
}

func (p *Peer) AddICECandidate(cand webrtc.ICECandidateInit) error {
	return p.pc.AddICECandidate(cand)
}

func (p *Peer) SendControl(payload []byte) error {
	if !p.ControlReady() {
		return core.ErrControlNotReady
	}
	return p.control.Send(payload)
}

func (p *Peer) ControlReady() bool {
	return p.control != nil && p.control.ReadyState() == webrtc.DataChannelStateOpen
}

func (p *Peer) AttachAudio(track webrtc.TrackLocal) error {
	sender, err := p.pc.AddTrack(track)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.audioSender = sender
	p.mu.Unlock()
	return nil
}

func (p *Peer) DetachAudio() {
	p.mu.Lock()
	sender := p.audioSender
	p.audioSender = nil
	p.mu.Unlock()
	if sender == nil {
		return
	}
	if err := p.pc.RemoveTrack(sender); err != nil {
		log.Error().Err(err).Str("module", "rtc").Str("camera", string(p.id)).Msg("remove audio track")
	}
}

func (p *Peer) Close() {
	if err := p.pc.Close(); err != nil {
		log.Error().Err(err).Str("module", "rtc").Str("camera", string(p.id)).Msg("close error")
	}
}

// remoteStream snapshots the negotiated remote tracks.
type remoteStream struct {
	tracks []*webrtc.TrackRemote
}

func (s *remoteStream) HasAudio() bool { return s.hasKind(webrtc.RTPCodecTypeAudio) }
func (s *remoteStream) HasVideo() bool { return s.hasKind(webrtc.RTPCodecTypeVideo) }

func (s *remoteStream) hasKind(kind webrtc.RTPCodecType) bool {
	for _, t := range s.tracks {
		if t.Kind() == kind {
			return true
		}
	}
	return false
}
