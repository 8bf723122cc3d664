// Command cliplink is the clipboard-sync client: it connects to a cliplinkd
// server, establishes the encrypted channel, and copies or pastes the remote
// clip for this machine's identity.
package main

import (
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/opd-ai/cliplink/conn"
	"github.com/opd-ai/cliplink/keyring"
	"github.com/opd-ai/cliplink/repository"
	"github.com/opd-ai/cliplink/session"
)

var (
	host         string
	port         uint16
	clip         string
	identityPath string
	verbose      bool

	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

func defaultIdentityPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".cliplink", "id_rsa")
	}
	return filepath.Join(home, ".cliplink", "id_rsa")
}

var rootCmd = &cobra.Command{
	Use:           "cliplink",
	Short:         "Sync clipboard payloads with a cliplinkd server over an encrypted channel",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logrus.SetOutput(os.Stderr)
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		} else {
			logrus.SetLevel(logrus.WarnLevel)
		}
		if clip != repository.DefaultClip {
			logrus.WithField("clip", clip).Warn("named clips are not carried by the wire protocol; the server uses the default clip")
		}
	},
}

var copyCmd = &cobra.Command{
	Use:   "copy",
	Short: "Fetch the remote clip and print it to stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := dialSession()
		if err != nil {
			return err
		}
		defer client.Close()

		payload, err := client.Copy()
		if err != nil {
			return err
		}
		if err := client.Terminate(); err != nil {
			return err
		}

		_, err = os.Stdout.Write(payload)
		return err
	},
}

var pasteCmd = &cobra.Command{
	Use:   "paste [text]",
	Short: "Store text (or stdin) as the remote clip",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var payload []byte
		if len(args) == 1 {
			payload = []byte(args[0])
		} else {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return err
			}
			payload = data
		}

		client, err := dialSession()
		if err != nil {
			return err
		}
		defer client.Close()

		if err := client.Paste(payload); err != nil {
			return err
		}
		if err := client.Terminate(); err != nil {
			return err
		}

		fmt.Fprintln(os.Stderr, successStyle.Render(fmt.Sprintf("pasted %d bytes", len(payload))))
		return nil
	},
}

// dialSession opens a fresh TCP connection, runs the handshake to completion,
// and returns the command client. Every invocation is an independent attempt;
// there is no retry on the same socket.
func dialSession() (*session.Client, error) {
	key, err := keyring.NewFileSource(identityPath).KeyPair()
	if err != nil {
		return nil, fmt.Errorf("load identity key: %w", err)
	}

	addr := net.JoinHostPort(host, strconv.Itoa(int(port)))
	stream, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", addr, err)
	}

	ack, err := conn.NewClientConn(stream, key).SendIdentity()
	if err != nil {
		stream.Close()
		return nil, err
	}
	secure, err := ack.ReceiveSessionKey()
	if err != nil {
		stream.Close()
		return nil, err
	}

	return session.NewClient(secure), nil
}

func main() {
	rootCmd.PersistentFlags().StringVar(&host, "host", "127.0.0.1", "server address")
	rootCmd.PersistentFlags().Uint16VarP(&port, "port", "p", 6166, "server port")
	rootCmd.PersistentFlags().StringVarP(&clip, "clip", "c", repository.DefaultClip, "clip name")
	rootCmd.PersistentFlags().StringVar(&identityPath, "identity", defaultIdentityPath(), "path to the RSA identity key")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(copyCmd, pasteCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}
