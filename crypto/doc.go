// Package crypto implements the cryptographic primitives of the cliplink
// protocol: RSA PKCS#1 v1.5 key wrapping for the handshake, OpenSSH
// serialization of public keys for wire transport, and AES-256-GCM
// authenticated encryption for session traffic.
//
// Example:
//
//	keys, err := crypto.GenerateKeyPair()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	line, _ := crypto.MarshalPublicKey(keys.Public())
//	fmt.Println("Public key:", string(line))
//
// A fresh random nonce is generated for every AES-GCM encryption; a nonce is
// never reused under the same key.
package crypto
