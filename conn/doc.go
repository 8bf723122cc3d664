// Package conn implements the cliplink connection protocol: a single
// round-trip RSA key exchange followed by AES-256-GCM encrypted packet
// transport over one TCP stream.
//
// Protocol states are modeled as distinct types. Each transition method
// consumes its receiver and returns the next-state value, so a program cannot
// perform session I/O on a connection that has not completed the handshake:
// ReadPacket and WritePacket exist only on SecureConn.
//
//	client                                server
//	------                                ------
//	NewClientConn                         NewServerConn
//	SendIdentity      -- sshsyn -->       ReceiveIdentity
//	ReceiveSessionKey <-- sshsynack --    SendSessionKey
//	     |            <-- sshsyndeny --        |
//	 SecureConn                           SecureConn
//
// Any I/O, decode, or crypto failure is fatal to the connection. There is no
// partial-frame recovery and no retry; a new attempt is a new TCP connection
// with a fresh handshake.
package conn
