package conn

import (
	"crypto/ed25519"
	"crypto/rand"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"

	"github.com/opd-ai/cliplink/crypto"
	"github.com/opd-ai/cliplink/packet"
)

func newTestKey(t *testing.T) *crypto.KeyPair {
	t.Helper()
	key, err := crypto.GenerateKeyPair()
	require.NoError(t, err)
	return key
}

// handshakePair runs both state machines to completion over an in-memory
// pipe and returns the two secure endpoints.
func handshakePair(t *testing.T, key *crypto.KeyPair) (client, server *SecureConn) {
	t.Helper()

	clientEnd, serverEnd := net.Pipe()
	t.Cleanup(func() {
		clientEnd.Close()
		serverEnd.Close()
	})

	type result struct {
		sec *SecureConn
		err error
	}
	serverCh := make(chan result, 1)
	go func() {
		ack, err := NewServerConn(serverEnd).ReceiveIdentity()
		if err != nil {
			serverCh <- result{err: err}
			return
		}
		sec, err := ack.SendSessionKey()
		serverCh <- result{sec: sec, err: err}
	}()

	ack, err := NewClientConn(clientEnd, key).SendIdentity()
	require.NoError(t, err)
	clientSec, err := ack.ReceiveSessionKey()
	require.NoError(t, err)

	serverRes := <-serverCh
	require.NoError(t, serverRes.err)

	return clientSec, serverRes.sec
}

// TestHandshakeConvergence checks that a completed handshake leaves both
// sides holding the identical AES-256 session key and identity.
func TestHandshakeConvergence(t *testing.T) {
	key := newTestKey(t)
	client, server := handshakePair(t, key)

	assert.Equal(t, client.key, server.key)

	line, err := crypto.MarshalPublicKey(key.Public())
	require.NoError(t, err)
	assert.Equal(t, string(line), client.Identity())
	assert.Equal(t, string(line), server.Identity())
}

func TestSecurePacketRoundTrip(t *testing.T) {
	key := newTestKey(t)
	client, server := handshakePair(t, key)

	writeErr := make(chan error, 1)
	go func() {
		writeErr <- client.WritePacket(packet.New(packet.TypePaste, []byte("hello")))
	}()

	pkt, err := server.ReadPacket()
	require.NoError(t, err)
	require.NoError(t, <-writeErr)

	assert.True(t, pkt.IsType(packet.TypePaste))
	assert.Equal(t, []byte("hello"), pkt.Payload)

	// And the reply direction.
	go func() {
		writeErr <- server.WritePacket(packet.New(packet.TypePasteAck, nil))
	}()

	pkt, err = client.ReadPacket()
	require.NoError(t, err)
	require.NoError(t, <-writeErr)
	assert.True(t, pkt.IsType(packet.TypePasteAck))
	assert.Empty(t, pkt.Payload)
}

// TestConsumedClientState asserts the runtime typestate guard: a transition
// method called on an already-consumed state value fails without touching the
// wire.
func TestConsumedClientState(t *testing.T) {
	key := newTestKey(t)
	clientEnd, serverEnd := net.Pipe()
	t.Cleanup(func() {
		clientEnd.Close()
		serverEnd.Close()
	})

	// Drain the sshsyn packet so SendIdentity can complete.
	go func() {
		buf := make([]byte, packet.PacketSize)
		serverEnd.Read(buf)
	}()

	hs := NewClientConn(clientEnd, key)
	_, err := hs.SendIdentity()
	require.NoError(t, err)

	// The guard fires before any I/O, so no reader is needed here.
	_, err = hs.SendIdentity()
	assert.ErrorIs(t, err, ErrConnectionConsumed)
}

func TestConsumedServerState(t *testing.T) {
	key := newTestKey(t)
	clientEnd, serverEnd := net.Pipe()
	t.Cleanup(func() {
		clientEnd.Close()
		serverEnd.Close()
	})

	go func() {
		NewClientConn(clientEnd, key).SendIdentity()
	}()

	hs := NewServerConn(serverEnd)
	_, err := hs.ReceiveIdentity()
	require.NoError(t, err)

	_, err = hs.ReceiveIdentity()
	assert.ErrorIs(t, err, ErrConnectionConsumed)
}

// TestServerDeniesUnparseableKey covers the denial path: an sshsyn payload
// that is not a supported public key must produce an sshsyndeny reply and the
// connection must not be promoted to the secure state.
func TestServerDeniesUnparseableKey(t *testing.T) {
	edPub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	sshEdPub, err := ssh.NewPublicKey(edPub)
	require.NoError(t, err)

	tests := []struct {
		name       string
		payload    []byte
		wantReason string
	}{
		{
			name:       "garbage payload",
			payload:    []byte("not a public key"),
			wantReason: "invalid public key",
		},
		{
			name:       "ed25519 key",
			payload:    ssh.MarshalAuthorizedKey(sshEdPub),
			wantReason: "unsupported key type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clientEnd, serverEnd := net.Pipe()
			t.Cleanup(func() {
				clientEnd.Close()
				serverEnd.Close()
			})

			denyCh := make(chan *packet.Packet, 1)
			go func() {
				syn, err := packet.New(packet.TypeHandshake, tt.payload).Serialize()
				if err != nil {
					denyCh <- nil
					return
				}
				if _, err := clientEnd.Write(syn); err != nil {
					denyCh <- nil
					return
				}

				buf := make([]byte, packet.PacketSize)
				if _, err := io.ReadFull(clientEnd, buf); err != nil {
					denyCh <- nil
					return
				}
				reply, err := packet.ParsePacket(buf)
				if err != nil {
					denyCh <- nil
					return
				}
				denyCh <- reply
			}()

			_, err := NewServerConn(serverEnd).ReceiveIdentity()
			require.Error(t, err)

			reply := <-denyCh
			require.NotNil(t, reply)
			assert.True(t, reply.IsType(packet.TypeHandshakeDeny))
			assert.Equal(t, tt.wantReason, string(reply.Payload))
		})
	}
}

// TestClientHandshakeDenied runs the client against a peer that replies
// sshsyndeny; the client must surface ErrHandshakeDenied.
func TestClientHandshakeDenied(t *testing.T) {
	key := newTestKey(t)
	clientEnd, serverEnd := net.Pipe()
	t.Cleanup(func() {
		clientEnd.Close()
		serverEnd.Close()
	})

	go func() {
		buf := make([]byte, packet.PacketSize)
		if _, err := io.ReadFull(serverEnd, buf); err != nil {
			return
		}
		deny, err := packet.New(packet.TypeHandshakeDeny, []byte("unsupported key type")).Serialize()
		if err != nil {
			return
		}
		serverEnd.Write(deny)
	}()

	ack, err := NewClientConn(clientEnd, key).SendIdentity()
	require.NoError(t, err)

	_, err = ack.ReceiveSessionKey()
	assert.ErrorIs(t, err, ErrHandshakeDenied)
}

// TestServerDeniesNonHandshakeType checks that a session-phase type tag
// arriving before the handshake is rejected.
func TestServerDeniesNonHandshakeType(t *testing.T) {
	clientEnd, serverEnd := net.Pipe()
	t.Cleanup(func() {
		clientEnd.Close()
		serverEnd.Close()
	})

	go func() {
		buf, err := packet.New(packet.TypeCopy, nil).Serialize()
		if err != nil {
			return
		}
		if _, err := clientEnd.Write(buf); err != nil {
			return
		}
		reply := make([]byte, packet.PacketSize)
		io.ReadFull(clientEnd, reply)
	}()

	_, err := NewServerConn(serverEnd).ReceiveIdentity()
	assert.ErrorIs(t, err, ErrUnexpectedType)
}

// TestReadPacketTamperedFrame flips one ciphertext bit in flight; the reader
// must fail authentication and report the connection as broken.
func TestReadPacketTamperedFrame(t *testing.T) {
	key := newTestKey(t)
	client, server := handshakePair(t, key)

	go func() {
		plaintext, err := packet.New(packet.TypePaste, []byte("hello")).Serialize()
		if err != nil {
			return
		}
		nonce, ciphertext, err := crypto.Encrypt(client.key, plaintext)
		if err != nil {
			return
		}

		frame := make([]byte, 0, FrameSize)
		frame = append(frame, nonce[:]...)
		frame = append(frame, ciphertext...)
		frame[crypto.NonceSize+7] ^= 0x01

		client.core.stream.Write(frame)
	}()

	_, err := server.ReadPacket()
	assert.ErrorIs(t, err, crypto.ErrDecryptionFailed)
}

// TestReadPacketPeerDisconnect covers the no-partial-frame rule: a peer that
// vanishes mid-frame leaves the reader with a fatal error, not a short
// packet.
func TestReadPacketPeerDisconnect(t *testing.T) {
	key := newTestKey(t)
	client, server := handshakePair(t, key)

	go func() {
		client.core.stream.Write(make([]byte, 100))
		client.Close()
	}()

	_, err := server.ReadPacket()
	assert.Error(t, err)
}
