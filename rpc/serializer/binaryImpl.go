package serializer

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/MilkClouds/SimpleRPyC/rpc/common"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format
type binarySerializerImpl struct {
}

// Bit flags to indicate which optional fields are present
const (
	hasTarget   uint16 = 1 << 0
	hasPath     uint16 = 1 << 1
	hasName     uint16 = 1 << 2
	hasArgs     uint16 = 1 << 3
	hasKwargs   uint16 = 1 << 4
	hasKey      uint16 = 1 << 5
	hasRef      uint16 = 1 << 6
	hasValue    uint16 = 1 << 7
	hasErr      uint16 = 1 << 8
	hasTrace    uint16 = 1 << 9
	hasProtocol uint16 = 1 << 10
)

// Bit flags for the presence of Range bounds
const (
	hasStart byte = 1 << 0
	hasStop  byte = 1 << 1
	hasStep  byte = 1 << 2
)

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	buf := &bytes.Buffer{}

	// Compute the flags byte up front
	var flags uint16
	if msg.Target != 0 {
		flags |= hasTarget
	}
	if msg.Path != "" {
		flags |= hasPath
	}
	if msg.Name != "" {
		flags |= hasName
	}
	if msg.Args != nil {
		flags |= hasArgs
	}
	if msg.Kwargs != nil {
		flags |= hasKwargs
	}
	if msg.Key != nil {
		flags |= hasKey
	}
	if msg.Ref != 0 {
		flags |= hasRef
	}
	if msg.Value != nil {
		flags |= hasValue
	}
	if msg.Err != "" {
		flags |= hasErr
	}
	if msg.Trace != "" {
		flags |= hasTrace
	}
	if msg.Protocol {
		flags |= hasProtocol
	}

	// Write message type and flags
	buf.WriteByte(byte(msg.MsgType))
	writeUint16(buf, flags)

	// Write fields in flag-bit order
	if flags&hasTarget != 0 {
		writeUint64(buf, msg.Target)
	}
	if flags&hasPath != 0 {
		writeString(buf, msg.Path)
	}
	if flags&hasName != 0 {
		writeString(buf, msg.Name)
	}
	if flags&hasArgs != 0 {
		writeUint32(buf, uint32(len(msg.Args)))
		for _, v := range msg.Args {
			writeValue(buf, v)
		}
	}
	if flags&hasKwargs != 0 {
		writeUint32(buf, uint32(len(msg.Kwargs)))
		for k, v := range msg.Kwargs {
			writeString(buf, k)
			writeValue(buf, v)
		}
	}
	if flags&hasKey != 0 {
		writeValue(buf, *msg.Key)
	}
	if flags&hasRef != 0 {
		writeUint64(buf, msg.Ref)
	}
	if flags&hasValue != 0 {
		writeValue(buf, *msg.Value)
	}
	if flags&hasErr != 0 {
		writeString(buf, msg.Err)
	}
	if flags&hasTrace != 0 {
		writeString(buf, msg.Trace)
	}
	// hasProtocol carries no payload, the flag bit is the value

	return buf.Bytes(), nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	*msg = common.Message{}

	r := &binReader{data: data}

	// Read message type and flags
	msgType, err := r.u8()
	if err != nil {
		return fmt.Errorf("data too short for message header")
	}
	msg.MsgType = common.MessageType(msgType)

	flags, err := r.u16()
	if err != nil {
		return fmt.Errorf("data too short for message flags")
	}

	// Read fields in flag-bit order
	if flags&hasTarget != 0 {
		if msg.Target, err = r.u64(); err != nil {
			return fmt.Errorf("data too short for target: %v", err)
		}
	}
	if flags&hasPath != 0 {
		if msg.Path, err = r.str(); err != nil {
			return fmt.Errorf("failed to read path: %v", err)
		}
	}
	if flags&hasName != 0 {
		if msg.Name, err = r.str(); err != nil {
			return fmt.Errorf("failed to read name: %v", err)
		}
	}
	if flags&hasArgs != 0 {
		count, err := r.u32()
		if err != nil {
			return fmt.Errorf("failed to read args count: %v", err)
		}
		msg.Args = make([]common.Value, count)
		for i := range msg.Args {
			if msg.Args[i], err = readValue(r); err != nil {
				return fmt.Errorf("failed to read arg %d: %v", i, err)
			}
		}
	}
	if flags&hasKwargs != 0 {
		count, err := r.u32()
		if err != nil {
			return fmt.Errorf("failed to read kwargs count: %v", err)
		}
		msg.Kwargs = make(map[string]common.Value, count)
		for i := uint32(0); i < count; i++ {
			k, err := r.str()
			if err != nil {
				return fmt.Errorf("failed to read kwarg name: %v", err)
			}
			if msg.Kwargs[k], err = readValue(r); err != nil {
				return fmt.Errorf("failed to read kwarg %q: %v", k, err)
			}
		}
	}
	if flags&hasKey != 0 {
		key, err := readValue(r)
		if err != nil {
			return fmt.Errorf("failed to read key: %v", err)
		}
		msg.Key = &key
	}
	if flags&hasRef != 0 {
		if msg.Ref, err = r.u64(); err != nil {
			return fmt.Errorf("data too short for ref: %v", err)
		}
	}
	if flags&hasValue != 0 {
		val, err := readValue(r)
		if err != nil {
			return fmt.Errorf("failed to read value: %v", err)
		}
		msg.Value = &val
	}
	if flags&hasErr != 0 {
		if msg.Err, err = r.str(); err != nil {
			return fmt.Errorf("failed to read error: %v", err)
		}
	}
	if flags&hasTrace != 0 {
		if msg.Trace, err = r.str(); err != nil {
			return fmt.Errorf("failed to read trace: %v", err)
		}
	}
	msg.Protocol = flags&hasProtocol != 0

	return nil
}

// --------------------------------------------------------------------------
// Value encoding
// --------------------------------------------------------------------------

// writeValue appends the tagged binary encoding of a wire value: one kind
// byte followed by a kind-specific payload with big-endian lengths.
func writeValue(buf *bytes.Buffer, v common.Value) {
	buf.WriteByte(byte(v.Kind))

	switch v.Kind {
	case common.KindNil:
		// no payload
	case common.KindBool:
		if v.Bool {
			buf.WriteByte(1)
		} else {
			buf.WriteByte(0)
		}
	case common.KindInt:
		writeUint64(buf, uint64(v.Int))
	case common.KindFloat:
		writeUint64(buf, math.Float64bits(v.Float))
	case common.KindString:
		writeString(buf, v.Str)
	case common.KindBytes:
		writeUint32(buf, uint32(len(v.Bytes)))
		buf.Write(v.Bytes)
	case common.KindList:
		writeUint32(buf, uint32(len(v.List)))
		for _, item := range v.List {
			writeValue(buf, item)
		}
	case common.KindMap:
		writeUint32(buf, uint32(len(v.Map)))
		for k, item := range v.Map {
			writeString(buf, k)
			writeValue(buf, item)
		}
	case common.KindIntArray:
		writeUint32(buf, uint32(len(v.Ints)))
		for _, n := range v.Ints {
			writeUint64(buf, uint64(n))
		}
	case common.KindFloatArray:
		writeUint32(buf, uint32(len(v.Floats)))
		for _, f := range v.Floats {
			writeUint64(buf, math.Float64bits(f))
		}
	case common.KindReference:
		writeUint64(buf, v.Ref)
	case common.KindRange:
		var present byte
		if v.Range != nil {
			if v.Range.Start != nil {
				present |= hasStart
			}
			if v.Range.Stop != nil {
				present |= hasStop
			}
			if v.Range.Step != nil {
				present |= hasStep
			}
		}
		buf.WriteByte(present)
		if present&hasStart != 0 {
			writeUint64(buf, uint64(*v.Range.Start))
		}
		if present&hasStop != 0 {
			writeUint64(buf, uint64(*v.Range.Stop))
		}
		if present&hasStep != 0 {
			writeUint64(buf, uint64(*v.Range.Step))
		}
	}
}

// readValue decodes one tagged value. Empty collections decode to nil
// slices/maps, matching the factory function normalization.
func readValue(r *binReader) (common.Value, error) {
	kind, err := r.u8()
	if err != nil {
		return common.Value{}, fmt.Errorf("data too short for value kind")
	}

	switch common.ValueKind(kind) {
	case common.KindNil:
		return common.NilValue(), nil
	case common.KindBool:
		b, err := r.u8()
		if err != nil {
			return common.Value{}, err
		}
		return common.BoolValue(b != 0), nil
	case common.KindInt:
		n, err := r.u64()
		if err != nil {
			return common.Value{}, err
		}
		return common.IntValue(int64(n)), nil
	case common.KindFloat:
		n, err := r.u64()
		if err != nil {
			return common.Value{}, err
		}
		return common.FloatValue(math.Float64frombits(n)), nil
	case common.KindString:
		s, err := r.str()
		if err != nil {
			return common.Value{}, err
		}
		return common.StringValue(s), nil
	case common.KindBytes:
		n, err := r.u32()
		if err != nil {
			return common.Value{}, err
		}
		data, err := r.take(int(n))
		if err != nil {
			return common.Value{}, err
		}
		if n == 0 {
			return common.BytesValue(nil), nil
		}
		out := make([]byte, n)
		copy(out, data)
		return common.BytesValue(out), nil
	case common.KindList:
		n, err := r.u32()
		if err != nil {
			return common.Value{}, err
		}
		if n == 0 {
			return common.ListValue(), nil
		}
		items := make([]common.Value, n)
		for i := range items {
			if items[i], err = readValue(r); err != nil {
				return common.Value{}, err
			}
		}
		return common.ListValue(items...), nil
	case common.KindMap:
		n, err := r.u32()
		if err != nil {
			return common.Value{}, err
		}
		if n == 0 {
			return common.MapValue(nil), nil
		}
		m := make(map[string]common.Value, n)
		for i := uint32(0); i < n; i++ {
			k, err := r.str()
			if err != nil {
				return common.Value{}, err
			}
			if m[k], err = readValue(r); err != nil {
				return common.Value{}, err
			}
		}
		return common.MapValue(m), nil
	case common.KindIntArray:
		n, err := r.u32()
		if err != nil {
			return common.Value{}, err
		}
		if n == 0 {
			return common.IntArrayValue(nil), nil
		}
		a := make([]int64, n)
		for i := range a {
			u, err := r.u64()
			if err != nil {
				return common.Value{}, err
			}
			a[i] = int64(u)
		}
		return common.IntArrayValue(a), nil
	case common.KindFloatArray:
		n, err := r.u32()
		if err != nil {
			return common.Value{}, err
		}
		if n == 0 {
			return common.FloatArrayValue(nil), nil
		}
		a := make([]float64, n)
		for i := range a {
			u, err := r.u64()
			if err != nil {
				return common.Value{}, err
			}
			a[i] = math.Float64frombits(u)
		}
		return common.FloatArrayValue(a), nil
	case common.KindReference:
		id, err := r.u64()
		if err != nil {
			return common.Value{}, err
		}
		return common.RefValue(id), nil
	case common.KindRange:
		present, err := r.u8()
		if err != nil {
			return common.Value{}, err
		}
		rng := &common.Range{}
		if present&hasStart != 0 {
			u, err := r.u64()
			if err != nil {
				return common.Value{}, err
			}
			rng.Start = common.Bound(int64(u))
		}
		if present&hasStop != 0 {
			u, err := r.u64()
			if err != nil {
				return common.Value{}, err
			}
			rng.Stop = common.Bound(int64(u))
		}
		if present&hasStep != 0 {
			u, err := r.u64()
			if err != nil {
				return common.Value{}, err
			}
			rng.Step = common.Bound(int64(u))
		}
		return common.RangeValue(rng), nil
	default:
		return common.Value{}, fmt.Errorf("unknown value kind: %d", kind)
	}
}

// --------------------------------------------------------------------------
// Low-level helpers
// --------------------------------------------------------------------------

func writeUint16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeUint64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func writeString(buf *bytes.Buffer, s string) {
	writeUint32(buf, uint32(len(s)))
	buf.WriteString(s)
}

// binReader is a bounds-checked cursor over the serialized data
type binReader struct {
	data []byte
	pos  int
}

func (r *binReader) take(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, fmt.Errorf("data too short: need %d bytes at offset %d, have %d", n, r.pos, len(r.data)-r.pos)
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *binReader) u8() (byte, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *binReader) u16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (r *binReader) u32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (r *binReader) u64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (r *binReader) str() (string, error) {
	n, err := r.u32()
	if err != nil {
		return "", err
	}
	b, err := r.take(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
