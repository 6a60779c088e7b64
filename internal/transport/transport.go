// Package transport wraps a pion PeerConnection carrying one raster video
// track and one feedback data channel.
package transport

import (
	"context"
	"errors"
	"sync"

	"github.com/pion/webrtc/v4"

	"github.com/1ureka/bouncetrack/internal/media"
	"github.com/1ureka/bouncetrack/internal/util"
)

// Options configures a Transport.
type Options struct {
	STUNServers     []string
	IncludeLoopback bool
}

// Transport is the session's peer connection. It satisfies the negotiator's
// Peer contract and exposes inbound tracks and data channels as awaitable
// operations.
//
// Ready is closed once the PeerConnection reaches Connected; Done is closed
// when it fails, closes, or the context passed to New is cancelled.
type Transport struct {
	pc *webrtc.PeerConnection

	readySignal chan struct{}
	readyOnce   sync.Once

	tracks   chan *webrtc.TrackRemote
	channels chan *webrtc.DataChannel

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	pcState webrtc.PeerConnectionState

	candMu    sync.Mutex
	remoteSet bool
	pending   []webrtc.ICECandidateInit

	closeOnce sync.Once
	closeErr  error
}

// New creates a Transport backed by a fresh PeerConnection.
func New(ctx context.Context, opts Options) (*Transport, error) {
	api, err := newAPI(opts)
	if err != nil {
		return nil, err
	}

	pc, err := newPeerConnection(api, opts.STUNServers)
	if err != nil {
		return nil, err
	}

	tCtx, tCancel := context.WithCancel(ctx)

	t := &Transport{
		pc:          pc,
		readySignal: make(chan struct{}),
		tracks:      make(chan *webrtc.TrackRemote, 1),
		channels:    make(chan *webrtc.DataChannel, 1),
		ctx:         tCtx,
		cancel:      tCancel,
		pcState:     webrtc.PeerConnectionStateNew,
	}

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		util.LogDebug("PeerConnection state: %s", state.String())
		t.mu.Lock()
		t.pcState = state
		t.mu.Unlock()

		switch state {
		case webrtc.PeerConnectionStateConnected:
			t.readyOnce.Do(func() { close(t.readySignal) })
		case webrtc.PeerConnectionStateFailed, webrtc.PeerConnectionStateClosed:
			tCancel()
		}
	})

	pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		util.LogDebug("remote track %s (%s)", track.ID(), track.Codec().MimeType)
		select {
		case t.tracks <- track:
		default:
			util.LogWarning("ignoring extra remote track %s", track.ID())
		}
	})

	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		util.LogDebug("remote data channel %q", dc.Label())
		select {
		case t.channels <- dc:
		default:
			util.LogWarning("ignoring extra data channel %q", dc.Label())
		}
	})

	return t, nil
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

// Ready returns a channel that is closed when the PeerConnection is connected.
func (t *Transport) Ready() <-chan struct{} {
	return t.readySignal
}

// Done returns a channel that is closed when the Transport is shut down.
func (t *Transport) Done() <-chan struct{} {
	return t.ctx.Done()
}

// Close shuts down the PeerConnection. Only the first call does any work.
func (t *Transport) Close() error {
	t.closeOnce.Do(func() {
		t.cancel()
		t.closeErr = t.pc.Close()
	})
	return t.closeErr
}

// ConnectionState returns the last observed PeerConnection state.
func (t *Transport) ConnectionState() webrtc.PeerConnectionState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.pcState
}

// ---------------------------------------------------------------------------
// Signaling
// ---------------------------------------------------------------------------

// CreateOffer generates an SDP offer.
func (t *Transport) CreateOffer() (webrtc.SessionDescription, error) {
	return t.pc.CreateOffer(nil)
}

// CreateAnswer generates an SDP answer.
func (t *Transport) CreateAnswer() (webrtc.SessionDescription, error) {
	return t.pc.CreateAnswer(nil)
}

// SetLocalDescription applies the local SDP.
func (t *Transport) SetLocalDescription(sdp webrtc.SessionDescription) error {
	return t.pc.SetLocalDescription(sdp)
}

// SetRemoteDescription applies the remote SDP, then any candidates that
// arrived before it.
func (t *Transport) SetRemoteDescription(sdp webrtc.SessionDescription) error {
	if err := t.pc.SetRemoteDescription(sdp); err != nil {
		return err
	}

	t.candMu.Lock()
	defer t.candMu.Unlock()

	t.remoteSet = true
	var errs []error
	for _, c := range t.pending {
		errs = append(errs, t.pc.AddICECandidate(c))
	}
	t.pending = nil
	return errors.Join(errs...)
}

// OnICECandidate registers a callback invoked whenever a new local ICE
// candidate is gathered. A nil candidate signals the end of gathering.
func (t *Transport) OnICECandidate(fn func(*webrtc.ICECandidate)) {
	t.pc.OnICECandidate(fn)
}

// AddICECandidate adds a remote ICE candidate. Candidates that arrive before
// the remote description are held until it is set.
func (t *Transport) AddICECandidate(candidate webrtc.ICECandidateInit) error {
	t.candMu.Lock()
	defer t.candMu.Unlock()

	if !t.remoteSet {
		t.pending = append(t.pending, candidate)
		return nil
	}
	return t.pc.AddICECandidate(candidate)
}

// ---------------------------------------------------------------------------
// Media
// ---------------------------------------------------------------------------

// AddVideoTrack attaches an outbound raster track. Must be called before
// the offer is created.
func (t *Transport) AddVideoTrack(streamID string) (*webrtc.TrackLocalStaticRTP, error) {
	track, err := webrtc.NewTrackLocalStaticRTP(media.RasterCodec(), "video", streamID)
	if err != nil {
		return nil, err
	}

	sender, err := t.pc.AddTrack(track)
	if err != nil {
		return nil, err
	}

	// Interceptors only see RTCP that is read.
	go func() {
		buf := make([]byte, 1500)
		for {
			if _, _, err := sender.Read(buf); err != nil {
				return
			}
		}
	}()

	return track, nil
}

// CreateFeedbackChannel opens the ordered, reliable feedback channel. Must be
// called before the offer is created.
func (t *Transport) CreateFeedbackChannel() (*webrtc.DataChannel, error) {
	return t.pc.CreateDataChannel("feedback", nil)
}

// AcceptTrack waits for the remote video track.
func (t *Transport) AcceptTrack(ctx context.Context) (*webrtc.TrackRemote, error) {
	select {
	case track := <-t.tracks:
		return track, nil
	case <-t.ctx.Done():
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// AcceptDataChannel waits for the remote feedback channel.
func (t *Transport) AcceptDataChannel(ctx context.Context) (*webrtc.DataChannel, error) {
	select {
	case dc := <-t.channels:
		return dc, nil
	case <-t.ctx.Done():
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ErrClosed is returned by the Accept methods once the transport is down.
var ErrClosed = errors.New("transport closed")
