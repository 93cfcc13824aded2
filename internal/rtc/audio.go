package rtc

import (
	"errors"
	"net"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

var ErrCaptureOpen = errors.New("audio capture already open")

// RTPAudioSource is the local microphone capture used for two-way
// audio. Capture itself happens out of process: an encoder (the mobile
// shell, or ffmpeg during development) pushes Opus RTP packets to a
// local UDP port and this source forwards them into the attached
// track. Open binds the port, Close releases it.
type RTPAudioSource struct {
	addr string

	mu   sync.Mutex
	conn *net.UDPConn
}

func NewRTPAudioSource(addr string) *RTPAudioSource {
	return &RTPAudioSource{addr: addr}
}

func (s *RTPAudioSource) Open() (webrtc.TrackLocal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		return nil, ErrCaptureOpen
	}

	udpAddr, err := net.ResolveUDPAddr("udp", s.addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, err
	}

	track, err := webrtc.NewTrackLocalStaticRTP(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus, ClockRate: 48000, Channels: 2},
		"audio", "microphone",
	)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	s.conn = conn
	go feed(conn, track)
	log.Info().Str("module", "rtc").Str("addr", s.addr).Msg("audio capture open")
	return track, nil
}

func (s *RTPAudioSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	log.Info().Str("module", "rtc").Str("addr", s.addr).Msg("audio capture closed")
	return err
}

// feed copies RTP packets from the capture socket into the track until
// the socket is closed.
func feed(conn *net.UDPConn, track *webrtc.TrackLocalStaticRTP) {
	buf := make([]byte, 1500)
	for {
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		if _, err := track.Write(buf[:n]); err != nil {
			log.Debug().Err(err).Str("module", "rtc").Msg("audio track write")
		}
	}
}
