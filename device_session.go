package goOIDC

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"io"
	"time"

	"github.com/MrEthical07/goOIDC/internal/flows"
)

const deviceSessionVersion1 = 1

// encodeDeviceSession packs a poll session into a compact versioned record
// so it can live in the flow store alongside the other session secrets.
func encodeDeviceSession(sess flows.PollSession) (string, error) {
	var buf bytes.Buffer
	buf.WriteByte(deviceSessionVersion1)

	var expiresAt int64
	if !sess.ExpiresAt.IsZero() {
		expiresAt = sess.ExpiresAt.Unix()
	}
	if err := binary.Write(&buf, binary.BigEndian, expiresAt); err != nil {
		return "", err
	}
	if err := binary.Write(&buf, binary.BigEndian, int64(sess.Interval)); err != nil {
		return "", err
	}

	if len(sess.GrantType) > 65535 || len(sess.ID) > 65535 {
		return "", errors.New("device session field length exceeded")
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(sess.GrantType))); err != nil {
		return "", err
	}
	buf.WriteString(sess.GrantType)
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(sess.ID))); err != nil {
		return "", err
	}
	buf.WriteString(sess.ID)

	return base64.RawStdEncoding.EncodeToString(buf.Bytes()), nil
}

func decodeDeviceSession(encoded string) (flows.PollSession, error) {
	var sess flows.PollSession

	data, err := base64.RawStdEncoding.DecodeString(encoded)
	if err != nil {
		return sess, err
	}
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return sess, err
	}
	if version != deviceSessionVersion1 {
		return sess, errors.New("invalid device session version")
	}

	var expiresAt, interval int64
	if err := binary.Read(reader, binary.BigEndian, &expiresAt); err != nil {
		return sess, err
	}
	if err := binary.Read(reader, binary.BigEndian, &interval); err != nil {
		return sess, err
	}
	if expiresAt != 0 {
		sess.ExpiresAt = time.Unix(expiresAt, 0)
	}
	sess.Interval = time.Duration(interval)

	var grantLen uint16
	if err := binary.Read(reader, binary.BigEndian, &grantLen); err != nil {
		return sess, err
	}
	grant := make([]byte, grantLen)
	if _, err := io.ReadFull(reader, grant); err != nil {
		return sess, err
	}
	sess.GrantType = string(grant)

	var idLen uint16
	if err := binary.Read(reader, binary.BigEndian, &idLen); err != nil {
		return sess, err
	}
	id := make([]byte, idLen)
	if _, err := io.ReadFull(reader, id); err != nil {
		return sess, err
	}
	sess.ID = string(id)

	return sess, nil
}
