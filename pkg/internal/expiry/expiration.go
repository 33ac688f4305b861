package expiry

import (
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	// RetentionAuto 默认保留策略.
	RetentionAuto = "auto"
	// RetentionDisabled 关闭按时间的过期.
	RetentionDisabled = "disabled"

	// DefaultMinAgeDays auto 策略下至少保留的天数.
	DefaultMinAgeDays = 30

	day = 24 * time.Hour
)

// Expiration 保留期策略.
//
//	auto        至少保留 30 天，配额不足时可以删除任何条目
//	D, auto     至少保留 D 天，配额不足时可以删除任何条目
//	auto, D     D 天后删除，配额不足时可以删除任何条目
//	D1, D2      至少保留 D1 天，D2 天后删除（D2 < D1 时取 D1），配额不足时不删除 D1 天内的条目
//	disabled    不按时间删除，配额不足时仍可删除
type Expiration struct {
	enabled     bool
	minAge      time.Duration
	maxAge      time.Duration
	hasMin      bool
	hasMax      bool
	purgeToSave bool
	obligation  string
	now         func() time.Time
}

// NewExpiration 解析保留策略，非法值按 auto 处理并记录警告. now 为 nil 时使用 time.Now.
func NewExpiration(obligation string, now func() time.Time, logger *zerolog.Logger) *Expiration {
	if now == nil {
		now = time.Now
	}

	e, ok := parseObligation(obligation)
	if !ok {
		if logger != nil {
			logger.Warn().
				Str("retention_obligation", obligation).
				Msg("invalid retention obligation, falling back to auto")
		}

		e, _ = parseObligation(RetentionAuto)
	}

	e.now = now

	return e
}

func parseObligation(raw string) (*Expiration, bool) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		value = RetentionAuto
	}

	e := &Expiration{obligation: value}

	if value == RetentionDisabled {
		e.purgeToSave = true
		return e, true
	}

	parts := strings.Split(value, ",")
	if len(parts) > 2 {
		return nil, false
	}

	minPart := strings.TrimSpace(parts[0])
	maxPart := RetentionAuto

	if len(parts) == 2 {
		maxPart = strings.TrimSpace(parts[1])
	}

	minDays, minAuto, ok := parseDays(minPart)
	if !ok {
		return nil, false
	}

	maxDays, maxAuto, ok := parseDays(maxPart)
	if !ok {
		return nil, false
	}

	e.enabled = true

	switch {
	case minAuto && maxAuto:
		e.setMin(DefaultMinAgeDays)
		e.purgeToSave = true
	case !minAuto && maxAuto:
		e.setMin(minDays)
		e.purgeToSave = true
	case minAuto && !maxAuto:
		e.setMax(maxDays)
		e.purgeToSave = true
	default:
		e.setMin(minDays)
		e.setMax(max(maxDays, minDays))
	}

	return e, true
}

func (e *Expiration) setMin(days int) {
	e.minAge = time.Duration(days) * day
	e.hasMin = true
}

func (e *Expiration) setMax(days int) {
	e.maxAge = time.Duration(days) * day
	e.hasMax = true
}

func parseDays(s string) (int, bool, bool) {
	if s == RetentionAuto {
		return 0, true, true
	}

	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, false, false
	}

	return n, false, true
}

// IsEnabled 是否启用按时间的过期.
func (e *Expiration) IsEnabled() bool {
	return e.enabled
}

// Obligation 规范化后的保留策略.
func (e *Expiration) Obligation() string {
	return e.obligation
}

// CanPurgeToSaveSpace 配额不足时是否可以无视最短保留期删除.
func (e *Expiration) CanPurgeToSaveSpace() bool {
	return e.purgeToSave
}

// MaxAgeCutoff 返回正常过期的截止时间，没有配置最长保留期时返回 false.
func (e *Expiration) MaxAgeCutoff() (time.Time, bool) {
	if !e.enabled || !e.hasMax {
		return time.Time{}, false
	}

	return e.now().Add(-e.maxAge), true
}

// MinAgeCutoff 返回最短保留期的截止时间，没有配置时返回 false.
func (e *Expiration) MinAgeCutoff() (time.Time, bool) {
	if !e.enabled || !e.hasMin {
		return time.Time{}, false
	}

	return e.now().Add(-e.minAge), true
}

// IsExpired 判断 mtime 为 ts 的条目是否过期.
// quotaExceeded 为 true 时使用紧急模式：正常过期的条目在紧急模式下一定过期.
// 未来时间的条目不会因为年龄过期.
func (e *Expiration) IsExpired(ts int64, quotaExceeded bool) bool {
	now := e.now()
	t := time.Unix(ts, 0)

	if t.After(now) && !(quotaExceeded && e.purgeToSave) {
		return false
	}

	if cutoff, ok := e.MaxAgeCutoff(); ok && t.Before(cutoff) {
		return true
	}

	if !quotaExceeded {
		return false
	}

	if e.purgeToSave {
		return true
	}

	cutoff, ok := e.MinAgeCutoff()

	return ok && t.Before(cutoff)
}
