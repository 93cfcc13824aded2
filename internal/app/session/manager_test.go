package session_test

import (
	"sync"
	"testing"

	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Neerajupadhayay2004/smart-home-automation/internal/app/session"
	"github.com/Neerajupadhayay2004/smart-home-automation/internal/domain"
	"github.com/Neerajupadhayay2004/smart-home-automation/internal/events"
	"github.com/Neerajupadhayay2004/smart-home-automation/internal/signal"
)

type fixture struct {
	mgr     *session.Manager
	factory *fakeFactory
	sender  *fakeSender
	mic     *fakeMic
	bus     *events.Bus
	events  *eventRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	bus := events.NewBus()
	f := &fixture{
		factory: newFakeFactory(),
		sender:  &fakeSender{},
		mic:     &fakeMic{},
		bus:     bus,
		events:  recordEvents(bus),
	}
	f.mgr = session.NewManager(bus, f.factory, f.mic, f.sender)
	return f
}

func cameraOffer() webrtc.SessionDescription {
	return webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: "v=0 fake offer"}
}

// connectAndEstablish drives a camera through the full happy path:
// request, offer, answer sent, peer connected.
func (f *fixture) connectAndEstablish(t *testing.T, id domain.CameraID) *fakePeer {
	t.Helper()
	require.True(t, f.mgr.ConnectToCamera(id, domain.QualityMedium))
	f.mgr.HandleCameraOffer(id, cameraOffer())
	peer := f.factory.peer(id)
	require.NotNil(t, peer)
	peer.connect(&fakeStream{audio: true, video: true})
	return peer
}

func TestConnectToCameraCreatesSession(t *testing.T) {
	f := newFixture(t)

	ok := f.mgr.ConnectToCamera("cam-1", domain.QualityHigh)

	require.True(t, ok)
	snap := f.mgr.GetCameraStream("cam-1")
	require.NotNil(t, snap)
	assert.Equal(t, domain.StateRequesting, snap.State)
	assert.Equal(t, domain.QualityHigh, snap.Quality)
	assert.Nil(t, snap.Stream)

	msgs := f.sender.messages()
	require.Len(t, msgs, 1)
	req, isReq := msgs[0].(signal.StreamRequest)
	require.True(t, isReq)
	assert.Equal(t, signal.TypeRequestStream, req.Type)
	assert.Equal(t, domain.CameraID("cam-1"), req.CameraID)
	assert.True(t, req.RequestAudio)
}

func TestConnectToCameraRejectsEmptyID(t *testing.T) {
	f := newFixture(t)

	assert.False(t, f.mgr.ConnectToCamera("", domain.QualityMedium))
	assert.Zero(t, f.factory.createdCount())
	assert.Empty(t, f.sender.messages())
}

func TestConnectToCameraDuplicateIsNoOp(t *testing.T) {
	f := newFixture(t)

	require.True(t, f.mgr.ConnectToCamera("cam-1", domain.QualityMedium))
	require.True(t, f.mgr.ConnectToCamera("cam-1", domain.QualityLow))

	assert.Equal(t, 1, f.factory.createdCount())
	assert.Len(t, f.sender.messages(), 1)
	assert.Len(t, f.mgr.GetAllCameraStreams(), 1)
}

func TestConnectToCameraConcurrentSameID(t *testing.T) {
	f := newFixture(t)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.mgr.ConnectToCamera("cam-1", domain.QualityMedium)
		}()
	}
	wg.Wait()

	assert.Len(t, f.mgr.GetAllCameraStreams(), 1)
}

func TestConnectToCameraPeerFactoryFailure(t *testing.T) {
	f := newFixture(t)
	f.factory.err = errNoDevice

	assert.False(t, f.mgr.ConnectToCamera("cam-1", domain.QualityMedium))
	assert.Nil(t, f.mgr.GetCameraStream("cam-1"))
	assert.Empty(t, f.sender.messages())
}

func TestHappyPathSignalingFlow(t *testing.T) {
	f := newFixture(t)

	require.True(t, f.mgr.ConnectToCamera("cam-1", domain.QualityMedium))

	f.mgr.HandleCameraOffer("cam-1", cameraOffer())

	snap := f.mgr.GetCameraStream("cam-1")
	require.NotNil(t, snap)
	assert.Equal(t, domain.StateNegotiating, snap.State)

	msgs := f.sender.messages()
	require.Len(t, msgs, 2)
	answer, isAnswer := msgs[1].(signal.AnswerMessage)
	require.True(t, isAnswer)
	assert.Equal(t, signal.TypeCameraAnswer, answer.Type)
	assert.Equal(t, domain.CameraID("cam-1"), answer.CameraID)

	peer := f.factory.peer("cam-1")
	require.NotNil(t, peer)
	peer.connect(&fakeStream{audio: true, video: true})

	snap = f.mgr.GetCameraStream("cam-1")
	require.NotNil(t, snap)
	assert.Equal(t, domain.StateConnected, snap.State)
	assert.True(t, snap.HasAudio)

	require.Equal(t, 1, f.events.count(events.StreamReceived))
	state, isState := f.events.last(events.ConnectionStateChanged).(session.StateEvent)
	require.True(t, isState)
	assert.Equal(t, domain.StateConnected, state.State)
}

// A session exposes a media stream exactly while it is connected.
func TestStreamPresentOnlyWhenConnected(t *testing.T) {
	f := newFixture(t)

	require.True(t, f.mgr.ConnectToCamera("cam-1", domain.QualityMedium))
	assert.Nil(t, f.mgr.GetCameraStream("cam-1").Stream)

	f.mgr.HandleCameraOffer("cam-1", cameraOffer())
	assert.Nil(t, f.mgr.GetCameraStream("cam-1").Stream)

	f.factory.peer("cam-1").connect(&fakeStream{video: true})
	assert.NotNil(t, f.mgr.GetCameraStream("cam-1").Stream)
}

func TestDisconnectUnknownCameraIsSilent(t *testing.T) {
	f := newFixture(t)

	f.mgr.DisconnectFromCamera("ghost")

	assert.Empty(t, f.sender.messages())
	assert.Zero(t, f.events.count(events.CameraDisconnected))
}

func TestDisconnectTearsDownSession(t *testing.T) {
	f := newFixture(t)
	peer := f.connectAndEstablish(t, "cam-1")

	f.mgr.DisconnectFromCamera("cam-1")

	assert.Nil(t, f.mgr.GetCameraStream("cam-1"))
	assert.True(t, peer.closed)
	assert.Equal(t, 1, f.events.count(events.CameraDisconnected))

	msgs := f.sender.messages()
	disc, isDisc := msgs[len(msgs)-1].(signal.DisconnectMessage)
	require.True(t, isDisc)
	assert.Equal(t, signal.TypeDisconnectCamera, disc.Type)
}

func TestStrayMessagesForUnknownCameraAreDropped(t *testing.T) {
	f := newFixture(t)

	f.mgr.HandleCameraOffer("ghost", cameraOffer())
	f.mgr.HandleCameraAnswer("ghost", webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer})
	f.mgr.HandleICECandidate("ghost", webrtc.ICECandidateInit{Candidate: "candidate:1"})

	assert.Empty(t, f.mgr.GetAllCameraStreams())
	assert.Empty(t, f.sender.messages())
	for _, name := range events.All() {
		assert.Zero(t, f.events.count(name), "unexpected %s event", name)
	}
}

func TestLateOfferAfterDisconnectProducesNothing(t *testing.T) {
	f := newFixture(t)

	require.True(t, f.mgr.ConnectToCamera("cam-2", domain.QualityMedium))
	f.mgr.DisconnectFromCamera("cam-2")
	sentBefore := len(f.sender.messages())

	f.mgr.HandleCameraOffer("cam-2", cameraOffer())

	assert.Nil(t, f.mgr.GetCameraStream("cam-2"))
	assert.Equal(t, 1, f.factory.createdCount())
	assert.Len(t, f.sender.messages(), sentBefore)
}

func TestOfferFailureFailsSession(t *testing.T) {
	f := newFixture(t)

	require.True(t, f.mgr.ConnectToCamera("cam-1", domain.QualityMedium))
	f.factory.peer("cam-1").offerErr = errNoDevice

	f.mgr.HandleCameraOffer("cam-1", cameraOffer())

	assert.Nil(t, f.mgr.GetCameraStream("cam-1"))
	state, isState := f.events.last(events.ConnectionStateChanged).(session.StateEvent)
	require.True(t, isState)
	assert.Equal(t, domain.StateFailed, state.State)
	assert.Equal(t, 1, f.events.count(events.CameraDisconnected))
}

func TestCommandsDroppedBeforeControlChannelOpens(t *testing.T) {
	f := newFixture(t)
	peer := f.connectAndEstablish(t, "cam-1")

	f.mgr.PanTiltZoom("cam-1", 30, 10, 2)

	assert.Zero(t, peer.sentCount())
	snap := f.mgr.GetCameraStream("cam-1")
	assert.Equal(t, domain.DefaultPTZ(), snap.PTZ)
}

func TestPanTiltZoomClampsAndUpdatesMirror(t *testing.T) {
	f := newFixture(t)
	peer := f.connectAndEstablish(t, "cam-1")
	peer.openControl()

	f.mgr.PanTiltZoom("cam-1", 200, -90, 50)

	require.Equal(t, 1, peer.sentCount())
	assert.Contains(t, string(peer.lastSent()), `"type":"ptz"`)

	snap := f.mgr.GetCameraStream("cam-1")
	assert.Equal(t, domain.PanMax, snap.PTZ.Pan)
	assert.Equal(t, domain.TiltMin, snap.PTZ.Tilt)
	assert.Equal(t, domain.ZoomMax, snap.PTZ.Zoom)
}

func TestRecordingToggleEmitsEvents(t *testing.T) {
	f := newFixture(t)
	peer := f.connectAndEstablish(t, "cam-1")
	peer.openControl()

	f.mgr.StartRecording("cam-1")

	assert.True(t, f.mgr.GetCameraStream("cam-1").IsRecording)
	rec, isRec := f.events.last(events.RecordingStateChanged).(session.RecordingEvent)
	require.True(t, isRec)
	assert.True(t, rec.IsRecording)
	assert.Contains(t, string(peer.lastSent()), `"action":"start"`)

	f.mgr.StopRecording("cam-1")

	assert.False(t, f.mgr.GetCameraStream("cam-1").IsRecording)
	rec, isRec = f.events.last(events.RecordingStateChanged).(session.RecordingEvent)
	require.True(t, isRec)
	assert.False(t, rec.IsRecording)
	assert.Contains(t, string(peer.lastSent()), `"action":"stop"`)
}

func TestRecordingDropDoesNotFlipMirror(t *testing.T) {
	f := newFixture(t)
	f.connectAndEstablish(t, "cam-1")

	f.mgr.StartRecording("cam-1")

	assert.False(t, f.mgr.GetCameraStream("cam-1").IsRecording)
	assert.Zero(t, f.events.count(events.RecordingStateChanged))
}

func TestChangeStreamQuality(t *testing.T) {
	f := newFixture(t)
	peer := f.connectAndEstablish(t, "cam-1")
	peer.openControl()

	f.mgr.ChangeStreamQuality("cam-1", domain.QualityHigh)

	assert.Equal(t, domain.QualityHigh, f.mgr.GetCameraStream("cam-1").Quality)
	q, isQ := f.events.last(events.QualityChanged).(session.QualityEvent)
	require.True(t, isQ)
	assert.Equal(t, domain.QualityHigh, q.Quality)

	f.mgr.ChangeStreamQuality("cam-1", domain.Quality("4k"))

	assert.Equal(t, domain.QualityHigh, f.mgr.GetCameraStream("cam-1").Quality)
	assert.Equal(t, 1, f.events.count(events.QualityChanged))
}

func TestEnableTwoWayAudioWithoutSession(t *testing.T) {
	f := newFixture(t)

	assert.False(t, f.mgr.EnableTwoWayAudio("ghost"))

	opens, _ := f.mic.counts()
	assert.Zero(t, opens)
	assert.Zero(t, f.events.count(events.TwoWayAudioEnabled))
}

func TestEnableTwoWayAudioCaptureFailure(t *testing.T) {
	f := newFixture(t)
	f.connectAndEstablish(t, "cam-1")
	f.mic.err = errNoDevice

	assert.False(t, f.mgr.EnableTwoWayAudio("cam-1"))
	assert.Zero(t, f.events.count(events.TwoWayAudioEnabled))
}

func TestTwoWayAudioTransfersBetweenCameras(t *testing.T) {
	f := newFixture(t)
	peerA := f.connectAndEstablish(t, "cam-a")
	f.connectAndEstablish(t, "cam-b")

	require.True(t, f.mgr.EnableTwoWayAudio("cam-a"))
	require.True(t, f.mgr.EnableTwoWayAudio("cam-b"))

	assert.Equal(t, 1, peerA.detached)
	opens, closes := f.mic.counts()
	assert.Equal(t, 2, opens)
	assert.Equal(t, 1, closes)

	disabled, isEvt := f.events.last(events.TwoWayAudioDisabled).(session.CameraEvent)
	require.True(t, isEvt)
	assert.Equal(t, domain.CameraID("cam-a"), disabled.CameraID)
	enabled, isEvt := f.events.last(events.TwoWayAudioEnabled).(session.CameraEvent)
	require.True(t, isEvt)
	assert.Equal(t, domain.CameraID("cam-b"), enabled.CameraID)
}

func TestEnableTwoWayAudioIdempotentForHolder(t *testing.T) {
	f := newFixture(t)
	f.connectAndEstablish(t, "cam-a")

	require.True(t, f.mgr.EnableTwoWayAudio("cam-a"))
	require.True(t, f.mgr.EnableTwoWayAudio("cam-a"))

	opens, _ := f.mic.counts()
	assert.Equal(t, 1, opens)
	assert.Equal(t, 1, f.events.count(events.TwoWayAudioEnabled))
}

func TestDisconnectReleasesMicrophone(t *testing.T) {
	f := newFixture(t)
	peer := f.connectAndEstablish(t, "cam-a")
	require.True(t, f.mgr.EnableTwoWayAudio("cam-a"))

	f.mgr.DisconnectFromCamera("cam-a")

	_, closes := f.mic.counts()
	assert.Equal(t, 1, closes)
	assert.True(t, peer.closed)
}

func TestChannelDownFailsPendingSessionsOnly(t *testing.T) {
	f := newFixture(t)

	require.True(t, f.mgr.ConnectToCamera("pending", domain.QualityMedium))
	f.connectAndEstablish(t, "live")

	f.mgr.HandleChannelDown()

	assert.Nil(t, f.mgr.GetCameraStream("pending"))
	live := f.mgr.GetCameraStream("live")
	require.NotNil(t, live)
	assert.Equal(t, domain.StateConnected, live.State)
	assert.Equal(t, 1, f.events.count(events.SocketDisconnected))
}

func TestPeerClosedAfterConnectEmitsDisconnected(t *testing.T) {
	f := newFixture(t)
	peer := f.connectAndEstablish(t, "cam-1")

	peer.onClosed()

	assert.Nil(t, f.mgr.GetCameraStream("cam-1"))
	state, isState := f.events.last(events.ConnectionStateChanged).(session.StateEvent)
	require.True(t, isState)
	assert.Equal(t, domain.StateDisconnected, state.State)
	assert.Equal(t, 1, f.events.count(events.CameraDisconnected))
}

func TestControlMessageForwardedToBus(t *testing.T) {
	f := newFixture(t)
	peer := f.connectAndEstablish(t, "cam-1")

	peer.onControlMsg([]byte(`{"type":"motionDetected","zone":2}`))

	require.Equal(t, 1, f.events.count(events.CameraMessage))
	msg, isMsg := f.events.last(events.CameraMessage).(session.MessageEvent)
	require.True(t, isMsg)
	assert.Equal(t, domain.CameraID("cam-1"), msg.CameraID)

	peer.onControlMsg([]byte("not json"))
	assert.Equal(t, 1, f.events.count(events.CameraMessage))
}

func TestICECandidateForwardedToSignaling(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.mgr.ConnectToCamera("cam-1", domain.QualityMedium))
	peer := f.factory.peer("cam-1")

	peer.onICE(webrtc.ICECandidateInit{Candidate: "candidate:1 1 udp 2130706431 10.0.0.1 50000 typ host"})

	msgs := f.sender.messages()
	cand, isCand := msgs[len(msgs)-1].(signal.CandidateMessage)
	require.True(t, isCand)
	assert.Equal(t, signal.TypeICECandidate, cand.Type)
	assert.Equal(t, domain.CameraID("cam-1"), cand.CameraID)
}

func TestGetAllCameraStreamsSortedByID(t *testing.T) {
	f := newFixture(t)
	require.True(t, f.mgr.ConnectToCamera("cam-c", domain.QualityMedium))
	require.True(t, f.mgr.ConnectToCamera("cam-a", domain.QualityMedium))
	require.True(t, f.mgr.ConnectToCamera("cam-b", domain.QualityMedium))

	all := f.mgr.GetAllCameraStreams()

	require.Len(t, all, 3)
	assert.Equal(t, domain.CameraID("cam-a"), all[0].ID)
	assert.Equal(t, domain.CameraID("cam-b"), all[1].ID)
	assert.Equal(t, domain.CameraID("cam-c"), all[2].ID)
}

func TestCloseTearsDownWithoutEvents(t *testing.T) {
	f := newFixture(t)
	peer := f.connectAndEstablish(t, "cam-1")
	before := f.events.count(events.CameraDisconnected)

	f.mgr.Close()

	assert.True(t, peer.closed)
	assert.Empty(t, f.mgr.GetAllCameraStreams())
	assert.Equal(t, before, f.events.count(events.CameraDisconnected))
}
