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

const reputationRecordVersion1 = 1

var ErrReputationBackend = errors.New("reputation backend unavailable")

// ReputationRecord tracks abuse from one IP address. Attempts only ever
// grows; Banned is terminal until an administrative clear.
type ReputationRecord struct {
	IP          string
	Attempts    uint32
	FirstSeen   int64
	LastAttempt int64
	Suspicious  bool
	Banned      bool
	Reason      string
}

// ReputationStore is the exclusive owner of per-IP reputation state. Records
// live under one key per address; a ZSET scored by first-seen time preserves
// insertion order for the administrative listings.
type ReputationStore struct {
	redis  redis.UniversalClient
	prefix string
}

func NewReputationStore(redisClient redis.UniversalClient, prefix string) *ReputationStore {
	if prefix == "" {
		prefix = "rep"
	}
	return &ReputationStore{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *ReputationStore) key(ip string) string {
	return s.prefix + ":ip:" + ip
}

func (s *ReputationStore) indexKey() string {
	return s.prefix + ":index"
}

// RecordFailure creates or increments the record for ip and applies the ban
// policy: a post-increment attempt count at or above banThreshold sets the
// permanent ban flag. The read-modify-write runs under WATCH with a bounded
// retry loop so concurrent failures from the same address never under-count.
// It returns the updated record and whether this call flipped the ban flag.
func (s *ReputationStore) RecordFailure(ctx context.Context, ip, reason string, banThreshold int) (*ReputationRecord, bool, error) {
	const maxRetries = 8
	key := s.key(ip)

	for i := 0; i < maxRetries; i++ {
		var (
			updated  ReputationRecord
			newlyBan bool
		)
		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			now := time.Now().Unix()
			record := &ReputationRecord{
				IP:         ip,
				FirstSeen:  now,
				Suspicious: true,
			}

			data, err := tx.Get(ctx, key).Bytes()
			switch {
			case err == nil:
				record, err = decodeReputationRecord(data)
				if err != nil {
					return err
				}
				record.IP = ip
			case errors.Is(err, redis.Nil):
				// first recorded failure for this address
			default:
				return err
			}

			wasBanned := record.Banned
			record.Attempts++
			record.LastAttempt = now
			record.Reason = reason
			if int(record.Attempts) >= banThreshold {
				record.Banned = true
				record.Suspicious = false
			}
			newlyBan = record.Banned && !wasBanned
			updated = *record

			encoded, err := encodeReputationRecord(record)
			if err != nil {
				return err
			}
			firstSeen := record.FirstSeen
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, encoded, 0)
				pipe.ZAddNX(ctx, s.indexKey(), redis.Z{Score: float64(firstSeen), Member: ip})
				return nil
			})
			return err
		}, key)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			return nil, false, fmt.Errorf("%w: %v", ErrReputationBackend, err)
		}
		return &updated, newlyBan, nil
	}

	return nil, false, fmt.Errorf("%w: cas retries exhausted", ErrReputationBackend)
}

// IsBanned reports whether ip carries a permanent ban. Unknown addresses are
// not banned.
func (s *ReputationStore) IsBanned(ctx context.Context, ip string) (bool, error) {
	record, err := s.Get(ctx, ip)
	if err != nil {
		return false, err
	}
	return record != nil && record.Banned, nil
}

// Get returns the record for ip, or nil when none exists.
func (s *ReputationStore) Get(ctx context.Context, ip string) (*ReputationRecord, error) {
	data, err := s.redis.Get(ctx, s.key(ip)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrReputationBackend, err)
	}
	record, err := decodeReputationRecord(data)
	if err != nil {
		return nil, err
	}
	record.IP = ip
	return record, nil
}

// ListBanned returns banned addresses in insertion order.
func (s *ReputationStore) ListBanned(ctx context.Context) ([]string, error) {
	records, err := s.list(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(records))
	for _, record := range records {
		if record.Banned {
			out = append(out, record.IP)
		}
	}
	return out, nil
}

// ListSuspicious returns suspicious, not-yet-banned addresses in insertion
// order.
func (s *ReputationStore) ListSuspicious(ctx context.Context) ([]*ReputationRecord, error) {
	records, err := s.list(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*ReputationRecord, 0, len(records))
	for _, record := range records {
		if record.Suspicious && !record.Banned {
			out = append(out, record)
		}
	}
	return out, nil
}

// ClearBan removes the record and its index entry entirely, resetting the
// attempt count and both flags. The next failure starts a fresh record.
func (s *ReputationStore) ClearBan(ctx context.Context, ip string) error {
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key(ip))
		pipe.ZRem(ctx, s.indexKey(), ip)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrReputationBackend, err)
	}
	return nil
}

func (s *ReputationStore) list(ctx context.Context) ([]*ReputationRecord, error) {
	ips, err := s.redis.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReputationBackend, err)
	}

	out := make([]*ReputationRecord, 0, len(ips))
	for _, ip := range ips {
		record, err := s.Get(ctx, ip)
		if err != nil {
			return nil, err
		}
		if record == nil {
			// index entry outlived its record; skip
			continue
		}
		out = append(out, record)
	}
	return out, nil
}

func encodeReputationRecord(record *ReputationRecord) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(reputationRecordVersion1)

	if err := binary.Write(&buf, binary.BigEndian, record.Attempts); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, record.FirstSeen); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, record.LastAttempt); err != nil {
		return nil, err
	}

	var flags byte
	if record.Suspicious {
		flags |= 1
	}
	if record.Banned {
		flags |= 2
	}
	buf.WriteByte(flags)

	if len(record.Reason) > 65535 {
		return nil, errors.New("reputation reason length exceeded")
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(record.Reason))); err != nil {
		return nil, err
	}
	buf.WriteString(record.Reason)

	return buf.Bytes(), nil
}

func decodeReputationRecord(data []byte) (*ReputationRecord, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != reputationRecordVersion1 {
		return nil, errors.New("invalid reputation record version")
	}

	record := &ReputationRecord{}
	if err := binary.Read(reader, binary.BigEndian, &record.Attempts); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &record.FirstSeen); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &record.LastAttempt); err != nil {
		return nil, err
	}

	flags, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	record.Suspicious = flags&1 != 0
	record.Banned = flags&2 != 0

	var reasonLen uint16
	if err := binary.Read(reader, binary.BigEndian, &reasonLen); err != nil {
		return nil, err
	}
	reason := make([]byte, reasonLen)
	if _, err := io.ReadFull(reader, reason); err != nil {
		return nil, err
	}
	record.Reason = string(reason)

	return record, nil
}
