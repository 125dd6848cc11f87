package merge

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	jsoniter "github.com/json-iterator/go"

	"github.com/recommend-games/board-game-merger/pkg/schema"
)

const progressEvery = 10_000

// writeOptions are the cleaning options of one merge job.
type writeOptions struct {
	dropEmpty bool
	sortKeys  bool
	progress  bool
}

func (o writeOptions) clean() bool { return o.dropEmpty || o.sortKeys }

// payloadSource yields the final record payloads in output order.
type payloadSource func(yield func(payload []byte) error) error

// writeRecords serializes the merged result, one compact JSON object per
// line. Without cleaning options it is a single direct pass from the store
// to the destination. With cleaning options the uncleaned result is first
// materialized to a temporary file and then streamed line by line into the
// destination, so at no point are two full copies of the result resident.
func (c *Config) writeRecords(src payloadSource, total int, opts writeOptions) error {
	fields := c.projectedFields()

	if !opts.clean() {
		log.Printf("[Clean] Writing merged data to <%s>", c.OutPath)
		return writeTo(c.OutPath, func(stream *jsoniter.Stream) error {
			return src(func(payload []byte) error {
				rec, err := decodePayload(payload)
				if err != nil {
					return err
				}
				encodeRecord(stream, rec, fields, c.Schema, opts)
				return stream.Error
			})
		})
	}

	tempDir, err := os.MkdirTemp("", "board-game-merger-")
	if err != nil {
		return fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)
	tempFile := filepath.Join(tempDir, "merged.jl")

	// Phase one copies the stored payloads verbatim. Re-encoding here would
	// materialize declared-but-absent struct fields as nulls, and phase two
	// would then no longer see an empty struct as empty.
	log.Printf("[Clean] Writing merged data to <%s>", tempFile)
	err = writeTo(tempFile, func(stream *jsoniter.Stream) error {
		return src(func(payload []byte) error {
			if _, err := stream.Write(payload); err != nil {
				return err
			}
			stream.WriteRaw("\n")
			return stream.Error
		})
	})
	if err != nil {
		return err
	}

	log.Printf("[Clean] Writing cleaned data to <%s>", c.OutPath)
	return writeTo(c.OutPath, func(stream *jsoniter.Stream) error {
		in, err := os.Open(tempFile)
		if err != nil {
			return err
		}
		defer in.Close()

		sc := bufio.NewScanner(in)
		sc.Buffer(make([]byte, scanBufSize), scanMaxLineLen)
		rows := 0
		for sc.Scan() {
			rec, err := decodePayload(sc.Bytes())
			if err != nil {
				return err
			}
			encodeRecord(stream, rec, fields, c.Schema, opts)
			if stream.Error != nil {
				return stream.Error
			}
			rows++
			if opts.progress && rows%progressEvery == 0 {
				log.Printf("[Clean] Cleaned %d/%d rows", rows, total)
			}
		}
		if opts.progress {
			log.Printf("[Clean] Cleaned %d/%d rows", rows, total)
		}
		return sc.Err()
	})
}

// writeTo runs fn against a stream on a fresh destination file. On any
// failure the partial file is removed, so a broken run never leaves a
// half-written destination behind.
func writeTo(path string, fn func(stream *jsoniter.Stream) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	w := bufio.NewWriter(f)
	stream := json.BorrowStream(w)
	err = fn(stream)
	if err == nil {
		// the stream buffers internally; Flush pushes the tail into w and
		// surfaces any pending stream error
		err = stream.Flush()
	}
	json.ReturnStream(stream)

	if err == nil {
		err = w.Flush()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func decodePayload(payload []byte) (map[string]any, error) {
	var rec map[string]any
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("decoding stored record: %w", err)
	}
	return rec, nil
}

// encodeRecord writes one record as a compact JSON object followed by a
// newline. Field order is the projected schema order, or lexicographic when
// sort-keys is requested; drop-empty removes fields whose value is null,
// empty string, empty list, empty struct, false or numeric zero.
func encodeRecord(stream *jsoniter.Stream, rec map[string]any, fields []string, s schema.Schema, opts writeOptions) {
	if opts.sortKeys {
		fields = append([]string(nil), fields...)
		sort.Strings(fields)
	}

	stream.WriteObjectStart()
	first := true
	for _, name := range fields {
		v := rec[name]
		if opts.dropEmpty && isEmptyValue(v) {
			continue
		}
		if !first {
			stream.WriteMore()
		}
		first = false
		stream.WriteObjectField(name)
		t := s.Types[name]
		writeValue(stream, v, &t, opts.sortKeys)
	}
	stream.WriteObjectEnd()
	stream.WriteRaw("\n")
}

// writeValue serializes a single value. Struct fields follow their declared
// order (or lexicographic order under sort-keys); maps without a declared
// type fall back to lexicographic order so output stays deterministic.
func writeValue(stream *jsoniter.Stream, v any, t *schema.Type, sortKeys bool) {
	switch val := v.(type) {
	case nil:
		stream.WriteNil()
	case string:
		stream.WriteString(val)
	case bool:
		stream.WriteBool(val)
	case int64:
		stream.WriteInt64(val)
	case int:
		stream.WriteInt64(int64(val))
	case float64:
		stream.WriteFloat64(val)
	case []any:
		var elem *schema.Type
		if t != nil && t.Elem != nil {
			elem = t.Elem
		}
		stream.WriteArrayStart()
		for i, item := range val {
			if i > 0 {
				stream.WriteMore()
			}
			writeValue(stream, item, elem, sortKeys)
		}
		stream.WriteArrayEnd()
	case map[string]any:
		writeStruct(stream, val, t, sortKeys)
	default:
		stream.WriteVal(val)
	}
}

func writeStruct(stream *jsoniter.Stream, m map[string]any, t *schema.Type, sortKeys bool) {
	var order []string
	var fieldTypes map[string]schema.Type
	if !sortKeys && t != nil && t.Kind == schema.KindStruct {
		order = t.FieldOrder
		fieldTypes = t.Fields
	} else {
		order = make([]string, 0, len(m))
		for k := range m {
			order = append(order, k)
		}
		sort.Strings(order)
		if t != nil && t.Kind == schema.KindStruct {
			fieldTypes = t.Fields
		}
	}

	stream.WriteObjectStart()
	first := true
	for _, name := range order {
		v, ok := m[name]
		if !ok && fieldTypes != nil {
			// declared but absent struct fields stay null
			v = nil
		}
		if !first {
			stream.WriteMore()
		}
		first = false
		stream.WriteObjectField(name)
		var ft *schema.Type
		if fieldTypes != nil {
			if typ, ok := fieldTypes[name]; ok {
				ft = &typ
			}
		}
		writeValue(stream, v, ft, sortKeys)
	}
	stream.WriteObjectEnd()
}

// isEmptyValue matches the falsy convention the cleaner strips: null, empty
// string, empty list, empty struct, false, and numeric zero.
func isEmptyValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case bool:
		return !val
	case int64:
		return val == 0
	case int:
		return val == 0
	case float64:
		return val == 0
	case []any:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	default:
		return false
	}
}
