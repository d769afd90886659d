package stores

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
)

const pendingSetupRecordVersion1 = 1

var (
	ErrPendingSetupNotFound = errors.New("pending setup not found")
	ErrPendingSetupBackend  = errors.New("pending setup backend unavailable")
)

// PendingSetup is unverified two-factor enrollment material: the candidate
// secret and the hashes of the backup code batch generated alongside it.
// Nothing here is trusted until the user proves possession of the secret.
type PendingSetup struct {
	Secret     []byte
	CodeHashes [][32]byte
	CreatedAt  int64
}

// PendingSetupStore holds at most one pending setup per user, under a TTL.
// Saving again overwrites the previous material, which is how re-running
// setup invalidates earlier secrets.
type PendingSetupStore struct {
	redis  redis.UniversalClient
	prefix string
}

func NewPendingSetupStore(redisClient redis.UniversalClient, prefix string) *PendingSetupStore {
	if prefix == "" {
		prefix = "tfs"
	}
	return &PendingSetupStore{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *PendingSetupStore) key(userID string) string {
	return s.prefix + ":" + userID
}

func (s *PendingSetupStore) Save(ctx context.Context, userID string, record *PendingSetup, ttl time.Duration) error {
	encoded, err := encodePendingSetup(record)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.key(userID), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrPendingSetupBackend, err)
	}
	return nil
}

func (s *PendingSetupStore) Get(ctx context.Context, userID string) (*PendingSetup, error) {
	data, err := s.redis.Get(ctx, s.key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrPendingSetupNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrPendingSetupBackend, err)
	}
	return decodePendingSetup(data)
}

func (s *PendingSetupStore) Delete(ctx context.Context, userID string) error {
	if err := s.redis.Del(ctx, s.key(userID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrPendingSetupBackend, err)
	}
	return nil
}

func encodePendingSetup(record *PendingSetup) ([]byte, error) {
	if record == nil || len(record.Secret) == 0 {
		return nil, errors.New("empty pending setup record")
	}
	if len(record.Secret) > 255 || len(record.CodeHashes) > 255 {
		return nil, errors.New("pending setup record size exceeded")
	}

	var buf bytes.Buffer
	buf.WriteByte(pendingSetupRecordVersion1)

	if err := binary.Write(&buf, binary.BigEndian, record.CreatedAt); err != nil {
		return nil, err
	}
	buf.WriteByte(byte(len(record.Secret)))
	buf.Write(record.Secret)
	buf.WriteByte(byte(len(record.CodeHashes)))
	for _, h := range record.CodeHashes {
		buf.Write(h[:])
	}

	return buf.Bytes(), nil
}

func decodePendingSetup(data []byte) (*PendingSetup, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != pendingSetupRecordVersion1 {
		return nil, errors.New("invalid pending setup version")
	}

	record := &PendingSetup{}
	if err := binary.Read(reader, binary.BigEndian, &record.CreatedAt); err != nil {
		return nil, err
	}

	secretLen, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	record.Secret = make([]byte, secretLen)
	if _, err := io.ReadFull(reader, record.Secret); err != nil {
		return nil, err
	}

	codeCount, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	record.CodeHashes = make([][32]byte, codeCount)
	for i := range record.CodeHashes {
		if _, err := io.ReadFull(reader, record.CodeHashes[i][:]); err != nil {
			return nil, err
		}
	}

	return record, nil
}
