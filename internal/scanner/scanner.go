package scanner

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/samcharles93/calscan/internal/logger"
	"github.com/samcharles93/calscan/pkg/lut"
)

// cancelCheckInterval is how many offsets pass between context checks.
const cancelCheckInterval = 4096

// Options configures a Scanner. The zero value scans the whole buffer for
// compact tables with the leading-zeros policy.
type Options struct {
	// Variants are tried in order at every offset; the first accepted wins.
	Variants []lut.Variant
	Leniency lut.Leniency
	// MaxAxisLen is the exclusive upper bound on axis lengths (0 = lut.MaxAxisLen).
	MaxAxisLen int
	// Start is the first offset examined.
	Start int
	// Limit is the absolute offset at which scanning stops. It applies only
	// when HasLimit is set and bounds table starts only; a table may extend
	// past it. Without a limit the scan runs to the end of the buffer.
	Limit    int
	HasLimit bool
	// OnAccept is called for every accepted candidate in discovery order.
	// A non-nil error aborts the scan.
	OnAccept func(Candidate) error
}

// Scanner finds encoded lookup tables in a byte buffer.
type Scanner struct {
	opts Options
}

func New(opts Options) (*Scanner, error) {
	if len(opts.Variants) == 0 {
		opts.Variants = []lut.Variant{lut.Compact}
	}
	for _, v := range opts.Variants {
		if v != lut.Compact && v != lut.Tagged {
			return nil, fmt.Errorf("%w: %s", lut.ErrVariant, v)
		}
	}
	if opts.MaxAxisLen <= 0 || opts.MaxAxisLen > lut.MaxAxisLen {
		opts.MaxAxisLen = lut.MaxAxisLen
	}
	if opts.Start < 0 || opts.Limit < 0 {
		return nil, fmt.Errorf("%w: start=%d limit=%d", ErrBadBound, opts.Start, opts.Limit)
	}
	return &Scanner{opts: opts}, nil
}

// Options returns the normalized options.
func (s *Scanner) Options() Options {
	return s.opts
}

// Scan makes one left-to-right pass over buf. The buffer must not be modified
// while the scan or any returned Candidate is in use.
func (s *Scanner) Scan(ctx context.Context, buf []byte) (*ResultSet, error) {
	log := logger.FromContext(ctx)

	limit := len(buf)
	if s.opts.HasLimit && s.opts.Limit < limit {
		limit = s.opts.Limit
	}
	rs := &ResultSet{Start: s.opts.Start, Limit: limit}

	st := NewState(s.opts.Start)
	for ; st.Cursor < limit; st.Advance() {
		if (st.Cursor-s.opts.Start)%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return rs, err
			}
		}
		if !st.Examining() {
			rs.Stats.Skipped++
			continue
		}
		rs.Stats.Examined++

		c, ok := s.examine(log, buf, st.Cursor, &rs.Stats)
		if !ok {
			continue
		}
		c = rs.add(c)
		st.Accept(c.Size)
		log.Debug("table accepted",
			"offset", fmt.Sprintf("0x%x", c.Start),
			"variant", c.Variant.String(),
			"size", c.Size,
			"skip_to", fmt.Sprintf("0x%x", c.End()),
		)
		if s.opts.OnAccept != nil {
			if err := s.opts.OnAccept(c); err != nil {
				return rs, err
			}
		}
	}
	return rs, nil
}

// examine tests every configured variant at off.
func (s *Scanner) examine(log logger.Logger, buf []byte, off int, stats *Stats) (Candidate, bool) {
	for _, v := range s.opts.Variants {
		x, y, ok := v.Header(buf[off:], s.opts.MaxAxisLen)
		if !ok {
			continue
		}
		stats.Eligible++
		size := v.Size(x, y)
		log.Debug("eligible table header",
			"offset", fmt.Sprintf("0x%x", off),
			"variant", v.String(),
			"x", x,
			"y", y,
			"size", fmt.Sprintf("0x%x", size),
		)
		if size > len(buf)-off {
			stats.OutOfBounds++
			log.Debug("candidate rejected", "offset", fmt.Sprintf("0x%x", off), "reason", "extends past end of buffer")
			continue
		}

		data := buf[off : off+size]
		view := lut.NewView(data, v, x, y)
		if out := view.Validate(s.opts.Leniency); !out.Valid {
			stats.Invalid++
			log.Debug("candidate rejected", "offset", fmt.Sprintf("0x%x", off), "reason", out.Reason())
			continue
		}
		log.Debug("valid axes",
			"x_axis", hex.EncodeToString(view.XAxis()),
			"y_axis", hex.EncodeToString(view.YAxis()),
		)
		return Candidate{
			Start:   off,
			Size:    size,
			X:       x,
			Y:       y,
			Variant: v,
			Data:    data,
		}, true
	}
	return Candidate{}, false
}
