// AngelaMos | 2026
// email_test.go

package notify

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/balaoui/internal/config"
)

func TestNewMailerDisabled(t *testing.T) {
	assert.Nil(t, NewMailer(config.SMTPConfig{}))
}

func TestSMTPMailerGivesUpOnSilentServer(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	done := make(chan struct{})
	t.Cleanup(func() { close(done) })
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		<-done
		_ = conn.Close()
	}()

	host, port, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	portNum, err := strconv.Atoi(port)
	require.NoError(t, err)

	mailer := NewMailer(config.SMTPConfig{
		Enabled: true,
		Host:    host,
		Port:    portNum,
		From:    "BALAoui <no-reply@balaoui.ma>",
		Timeout: 150 * time.Millisecond,
	})
	require.NotNil(t, mailer)

	start := time.Now()
	err = mailer.Send(context.Background(), "buyer@example.ma", "Commande expédiée", "Votre colis est en route.")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestSMTPMailerUsesBareSenderAddress(t *testing.T) {
	m, ok := NewMailer(config.SMTPConfig{
		Enabled: true,
		Host:    "mail.balaoui.ma",
		Port:    587,
		From:    "BALAoui <no-reply@balaoui.ma>",
	}).(*SMTPMailer)
	require.True(t, ok)

	assert.Equal(t, "no-reply@balaoui.ma", m.sender)
	assert.Equal(t, "mail.balaoui.ma:587", m.addr)
	assert.Equal(t, defaultMailTimeout, m.timeout)
}
