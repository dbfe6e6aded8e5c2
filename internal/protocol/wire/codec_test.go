package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math/rand"
	"testing"

	"github.com/yndnr/qipc-go/internal/core/domain"
)

func le() *Codec { return NewCodec(WithByteOrder(binary.LittleEndian)) }

func mustTable(t *testing.T, names []string, cols ...*domain.Value) *domain.Value {
	t.Helper()
	v, err := domain.NewTable(names, cols...)
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}
	return v
}

func TestMarshal_KnownBytes(t *testing.T) {
	tests := []struct {
		name string
		v    *domain.Value
		want []byte
	}{
		{"long atom", domain.NewLong(1), []byte{0xf9, 1, 0, 0, 0, 0, 0, 0, 0}},
		{"int atom", domain.NewInt(-1), []byte{0xfa, 0xff, 0xff, 0xff, 0xff}},
		{"bool atom", domain.NewBool(true), []byte{0xff, 1}},
		{"symbol atom", domain.NewSymbol("a"), []byte{0xf5, 'a', 0}},
		{"generic null", domain.NewNull(), []byte{0x65, 0}},
		{"error", domain.NewErrorValue("type"), []byte{0x80, 't', 'y', 'p', 'e', 0}},
		{"char list", domain.NewString("ab", domain.AttrNone), []byte{10, 0, 2, 0, 0, 0, 'a', 'b'}},
		{
			"sorted long list",
			domain.NewLongList([]int64{1, 2}, domain.AttrSorted),
			[]byte{7, 1, 2, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 2, 0, 0, 0, 0, 0, 0, 0},
		},
		{
			"symbol list",
			domain.NewSymbolList([]string{"a", "bc"}, domain.AttrNone),
			[]byte{11, 0, 2, 0, 0, 0, 'a', 0, 'b', 'c', 0},
		},
		{
			"functional query",
			domain.NewCompoundList(domain.NewSymbol("f"), domain.NewLong(20)),
			[]byte{0, 0, 2, 0, 0, 0, 0xf5, 'f', 0, 0xf9, 20, 0, 0, 0, 0, 0, 0, 0},
		},
		{
			"table",
			mustTable(t, []string{"a"}, domain.NewLongList([]int64{1}, domain.AttrNone)),
			[]byte{
				0x62, 0, 0x63,
				11, 0, 1, 0, 0, 0, 'a', 0,
				0, 0, 1, 0, 0, 0,
				7, 0, 1, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0,
			},
		},
	}

	c := le()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Marshal(tt.v)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Marshal() = %x, want %x", got, tt.want)
			}
			back, err := Unmarshal(got, binary.LittleEndian)
			if err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if !domain.Equal(back, tt.v) {
				t.Errorf("Unmarshal() = %v, want %v", back, tt.v)
			}
		})
	}
}

func TestEncode_Header(t *testing.T) {
	frame, err := le().Encode(Sync, domain.NewLong(1), false)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	wantHeader := []byte{1, 1, 0, 0, 17, 0, 0, 0}
	if !bytes.Equal(frame[:8], wantHeader) {
		t.Errorf("header = %x, want %x", frame[:8], wantHeader)
	}
	if len(frame) != 17 {
		t.Errorf("len(frame) = %d, want 17", len(frame))
	}

	be, err := NewCodec(WithByteOrder(binary.BigEndian)).Encode(Response, domain.NewLong(1), false)
	if err != nil {
		t.Fatalf("Encode(big) error = %v", err)
	}
	wantBE := []byte{0, 2, 0, 0, 0, 0, 0, 17, 0xf9, 0, 0, 0, 0, 0, 0, 0, 1}
	if !bytes.Equal(be, wantBE) {
		t.Errorf("big-endian frame = %x, want %x", be, wantBE)
	}
}

func TestDecode_BigEndian(t *testing.T) {
	// header(8) + type/attr/count(6) + one long(8)
	frame := []byte{
		0, 2, 0, 0, 0, 0, 0, 22,
		7, 0, 0, 0, 0, 1,
		0, 0, 0, 0, 0, 0, 0, 5,
	}
	msg, err := le().Decode(frame)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if msg.Type != Response {
		t.Errorf("Type = %v, want response", msg.Type)
	}
	xs, err := msg.Value.LongList()
	if err != nil {
		t.Fatalf("LongList() error = %v", err)
	}
	if len(xs) != 1 || xs[0] != 5 {
		t.Errorf("value = %v, want [5]", xs)
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	guid := domain.GUID{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	realNull, _ := domain.NewNullOf(domain.TypeRealAtom)
	floatNull, _ := domain.NewNullOf(domain.TypeFloatAtom)
	negInf, _ := domain.NewNegInfOf(domain.TypeLongAtom)
	dict, _ := domain.NewDictionary(
		domain.NewSymbolList([]string{"a", "b"}, domain.AttrUnique),
		domain.NewCompoundList(domain.NewLong(1), domain.NewString("x", domain.AttrNone)),
	)
	sorted, _ := domain.NewSortedDictionary(
		domain.NewLongList([]int64{1, 2}, domain.AttrSorted),
		domain.NewSymbolList([]string{"x", "y"}, domain.AttrNone),
	)
	table := mustTable(t, []string{"sym", "px", "ts"},
		domain.NewSymbolList([]string{"a", "b"}, domain.AttrGrouped),
		domain.NewFloatList([]float64{1.5, domain.NullFloat}, domain.AttrNone),
		domain.NewTimestampList([]int64{0, domain.NullLong}, domain.AttrNone),
	)
	keyed, err := table.Enkey(1)
	if err != nil {
		t.Fatalf("Enkey() error = %v", err)
	}

	values := map[string]*domain.Value{
		"bool":       domain.NewBool(false),
		"guid":       domain.NewGUID(guid),
		"byte":       domain.NewByte(0xab),
		"short":      domain.NewShort(-3),
		"real null":  realNull,
		"float null": floatNull,
		"long -inf":  negInf,
		"char":       domain.NewChar('q'),
		"timestamp":  domain.NewTimestampRaw(123456789),
		"month":      domain.NewMonthRaw(-5),
		"date":       domain.NewDateRaw(8000),
		"datetime":   domain.NewDatetimeRaw(1.25),
		"timespan":   domain.NewTimespanRaw(-1),
		"minute":     domain.NewMinuteRaw(61),
		"second":     domain.NewSecondRaw(3601),
		"time":       domain.NewTimeRaw(1000),
		"bool list":  domain.NewBoolList([]bool{true, false}, domain.AttrNone),
		"guid list":  domain.NewGUIDList([]domain.GUID{guid, {}}, domain.AttrNone),
		"byte list":  domain.NewByteList([]byte{1, 2, 3}, domain.AttrNone),
		"short list": domain.NewShortList([]int16{1, domain.NullShort}, domain.AttrNone),
		"int list":   domain.NewIntList([]int32{1, domain.InfInt}, domain.AttrParted),
		"real list":  domain.NewRealList([]float32{1.5, domain.NullReal}, domain.AttrNone),
		"date list":  domain.NewDateList([]int32{0, 1}, domain.AttrSorted),
		"time list":  domain.NewTimeList([]int32{1, 2}, domain.AttrNone),
		"empty list": domain.NewLongList(nil, domain.AttrNone),
		"empty mix":  domain.NewCompoundList(),
		"nested":     domain.NewCompoundList(domain.NewCompoundList(domain.NewNull()), domain.NewErrorValue("oops")),
		"dictionary": dict,
		"sorted":     sorted,
		"table":      table,
		"keyed":      keyed,
	}

	for _, order := range []ByteOrder{binary.LittleEndian, binary.BigEndian} {
		c := NewCodec(WithByteOrder(order))
		for name, v := range values {
			t.Run(order.String()+"/"+name, func(t *testing.T) {
				frame, err := c.Encode(Async, v, false)
				if err != nil {
					t.Fatalf("Encode() error = %v", err)
				}
				msg, err := NewCodec().Decode(frame)
				if err != nil {
					t.Fatalf("Decode() error = %v", err)
				}
				if msg.Type != Async {
					t.Errorf("Type = %v, want async", msg.Type)
				}
				if !domain.Equal(msg.Value, v) {
					t.Errorf("round trip = %v, want %v", msg.Value, v)
				}
			})
		}
	}
}

func TestEncode_Compression(t *testing.T) {
	xs := make([]int64, 1000)
	for i := range xs {
		xs[i] = 42
	}
	big := domain.NewLongList(xs, domain.AttrNone)
	c := le()

	frame, err := c.Encode(Sync, big, true)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	rawTotal := 8 + 6 + 8*1000
	if frame[2] != 1 {
		t.Fatal("frame should be compressed")
	}
	if got := binary.LittleEndian.Uint32(frame[4:8]); int(got) != len(frame) {
		t.Errorf("header length = %d, want %d", got, len(frame))
	}
	if got := binary.LittleEndian.Uint32(frame[8:12]); int(got) != rawTotal {
		t.Errorf("original length = %d, want %d", got, rawTotal)
	}
	if len(frame) >= rawTotal/2 {
		t.Errorf("compressed frame %d not below half of %d", len(frame), rawTotal)
	}

	msg, err := c.Decode(frame)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !msg.Compressed || !domain.Equal(msg.Value, big) {
		t.Error("compressed round trip mismatch")
	}

	plain, _ := c.Encode(Sync, big, false)
	if plain[2] != 0 || len(plain) != rawTotal {
		t.Errorf("uncompressed frame flag=%d len=%d", plain[2], len(plain))
	}

	small, _ := c.Encode(Sync, domain.NewString("1+1", domain.AttrNone), true)
	if small[2] != 0 {
		t.Error("small payloads should not be compressed")
	}

	rng := rand.New(rand.NewSource(1))
	noise := make([]byte, 5000)
	rng.Read(noise)
	incompressible, err := c.Encode(Sync, domain.NewByteList(noise, domain.AttrNone), true)
	if err != nil {
		t.Fatalf("Encode(noise) error = %v", err)
	}
	if incompressible[2] != 0 || len(incompressible) != 8+6+5000 {
		t.Error("incompressible payloads should be sent raw")
	}
}

func TestDecode_Errors(t *testing.T) {
	c := le()
	frame := func(payload ...byte) []byte {
		h := Header{Order: binary.LittleEndian, Type: Async, Length: uint32(8 + len(payload))}
		return append(h.AppendHeader(nil), payload...)
	}

	nested := bytes.Repeat([]byte{0, 0, 1, 0, 0, 0}, maxDepth+10)
	nested = append(nested, 0x65, 0)

	tests := []struct {
		name  string
		frame []byte
		want  error
	}{
		{"short header", []byte{1, 0, 0}, domain.ErrMalformedHeader},
		{"bad endianness", []byte{2, 0, 0, 0, 8, 0, 0, 0}, domain.ErrMalformedHeader},
		{"bad message type", []byte{1, 3, 0, 0, 8, 0, 0, 0}, domain.ErrMalformedHeader},
		{"length below header", []byte{1, 0, 0, 0, 4, 0, 0, 0}, domain.ErrMalformedHeader},
		{"length disagrees", append(frame(0x65, 0), 0), domain.ErrMalformedHeader},
		{"unknown type", frame(3, 0), domain.ErrUnknownType},
		{"function type", frame(100, 0), domain.ErrUnknownType},
		{"truncated atom", frame(0xf9, 1, 0, 0), domain.ErrTruncated},
		{"count beyond buffer", frame(7, 0, 0xff, 0xff, 0, 0), domain.ErrTruncated},
		{"unterminated symbol", frame(0xf5, 'a', 'b'), domain.ErrTruncated},
		{"trailing bytes", frame(0x65, 0, 0x65, 0), domain.ErrMalformedValue},
		{"ragged table", frame(
			0x62, 0, 0x63,
			11, 0, 2, 0, 0, 0, 'a', 0, 'b', 0,
			0, 0, 1, 0, 0, 0,
			7, 0, 1, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0,
		), domain.ErrMalformedValue},
		{"bad attribute", frame(7, 9, 0, 0, 0, 0), domain.ErrMalformedValue},
		{"too deep", frame(nested...), domain.ErrNestingTooDeep},
		{"bad compressed stream", []byte{1, 0, 1, 0, 14, 0, 0, 0, 20, 0, 0, 0, 0x01, 0x00}, domain.ErrDecompress},
		{"original length beyond expansion", []byte{1, 0, 1, 0, 14, 0, 0, 0, 0, 0, 0, 0x40, 0x00, 'a'}, domain.ErrDecompress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Decode(tt.frame)
			if !errors.Is(err, tt.want) {
				t.Errorf("Decode() error = %v, want %v", err, tt.want)
			}
			if !domain.IsKind(err, domain.KindProtocol) {
				t.Errorf("error kind = %v, want protocol", domain.KindOf(err))
			}
		})
	}
}

func TestCodec_SentinelRoundTrip(t *testing.T) {
	types := []domain.Type{
		domain.TypeShortAtom, domain.TypeIntAtom, domain.TypeLongAtom,
		domain.TypeRealAtom, domain.TypeFloatAtom,
		domain.TypeTimestampAtom, domain.TypeMonthAtom, domain.TypeDateAtom,
		domain.TypeDatetimeAtom, domain.TypeTimespanAtom,
		domain.TypeMinuteAtom, domain.TypeSecondAtom, domain.TypeTimeAtom,
	}
	c := le()

	for _, typ := range types {
		t.Run(typ.String(), func(t *testing.T) {
			null, err := domain.NewNullOf(typ)
			if err != nil {
				t.Fatalf("NewNullOf() error = %v", err)
			}
			inf, err := domain.NewInfOf(typ)
			if err != nil {
				t.Fatalf("NewInfOf() error = %v", err)
			}
			negInf, err := domain.NewNegInfOf(typ)
			if err != nil {
				t.Fatalf("NewNegInfOf() error = %v", err)
			}

			cases := []struct {
				name string
				v    *domain.Value
				is   func(*domain.Value) bool
			}{
				{"null", null, (*domain.Value).IsNull},
				{"inf", inf, (*domain.Value).IsInf},
				{"-inf", negInf, (*domain.Value).IsNegInf},
			}
			decoded := make([]*domain.Value, len(cases))
			for i, tc := range cases {
				frame, err := c.Encode(Sync, tc.v, false)
				if err != nil {
					t.Fatalf("%s: Encode() error = %v", tc.name, err)
				}
				msg, err := c.Decode(frame)
				if err != nil {
					t.Fatalf("%s: Decode() error = %v", tc.name, err)
				}
				if msg.Value.Type() != typ {
					t.Errorf("%s: type = %v, want %v", tc.name, msg.Value.Type(), typ)
				}
				if !domain.Equal(msg.Value, tc.v) {
					t.Errorf("%s: got %v, want %v", tc.name, msg.Value, tc.v)
				}
				if !tc.is(msg.Value) {
					t.Errorf("%s: decoded %v lost its sentinel", tc.name, msg.Value)
				}
				decoded[i] = msg.Value
			}
			for i := range decoded {
				for j := i + 1; j < len(decoded); j++ {
					if domain.Equal(decoded[i], decoded[j]) {
						t.Errorf("%s and %s decode equal", cases[i].name, cases[j].name)
					}
				}
			}
		})
	}
}

func TestMarshal_DepthLimit(t *testing.T) {
	nest := func(n int) *domain.Value {
		v := domain.NewLong(1)
		for i := 0; i < n; i++ {
			v = domain.NewCompoundList(v)
		}
		return v
	}

	c := le()
	if _, err := c.Marshal(nest(100)); err != nil {
		t.Errorf("Marshal(depth 100) error = %v", err)
	}
	_, err := c.Marshal(nest(maxDepth + 10))
	if !errors.Is(err, domain.ErrNestingTooDeep) {
		t.Errorf("Marshal(depth %d) error = %v, want ErrNestingTooDeep", maxDepth+10, err)
	}
	if _, err := c.Encode(Sync, nest(maxDepth+10), false); !errors.Is(err, domain.ErrNestingTooDeep) {
		t.Errorf("Encode() error = %v, want ErrNestingTooDeep", err)
	}
}

func TestReadMessage(t *testing.T) {
	c := le()
	f1, _ := c.Encode(Sync, domain.NewSymbol("ping"), false)
	f2, _ := c.Encode(Async, domain.NewLong(7), false)
	r := bytes.NewReader(append(append([]byte{}, f1...), f2...))

	m1, err := c.ReadMessage(r)
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	if s, _ := m1.Value.Symbol(); m1.Type != Sync || s != "ping" {
		t.Errorf("first message = %v %v", m1.Type, m1.Value)
	}
	m2, err := c.ReadMessage(r)
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	if n, _ := m2.Value.Long(); m2.Type != Async || n != 7 {
		t.Errorf("second message = %v %v", m2.Type, m2.Value)
	}

	_, err = c.ReadMessage(r)
	if !errors.Is(err, domain.ErrConnectionClosed) || !errors.Is(err, io.EOF) {
		t.Errorf("ReadMessage() at EOF error = %v", err)
	}

	_, err = c.ReadMessage(bytes.NewReader(f1[:len(f1)-1]))
	if !errors.Is(err, domain.ErrConnectionIO) {
		t.Errorf("ReadMessage() truncated body error = %v", err)
	}
}

func TestMaxMessageSize(t *testing.T) {
	c := NewCodec(WithByteOrder(binary.LittleEndian), WithMaxMessageSize(64))

	_, err := c.Encode(Sync, domain.NewByteList(make([]byte, 100), domain.AttrNone), false)
	if !errors.Is(err, domain.ErrMessageTooLarge) {
		t.Errorf("Encode() error = %v, want ErrMessageTooLarge", err)
	}

	huge := []byte{1, 1, 0, 0, 0, 0, 0x10, 0}
	_, err = c.ReadMessage(bytes.NewReader(huge))
	if !errors.Is(err, domain.ErrMessageTooLarge) {
		t.Errorf("ReadMessage() error = %v, want ErrMessageTooLarge", err)
	}
}

func TestNativeOrder(t *testing.T) {
	var b [2]byte
	binary.NativeEndian.PutUint16(b[:], 0x0102)
	want := binary.ByteOrder(binary.BigEndian)
	if b[0] == 0x02 {
		want = binary.LittleEndian
	}
	if NativeOrder != want {
		t.Errorf("NativeOrder = %v, want %v", NativeOrder, want)
	}
	if NewCodec().Order() != NativeOrder {
		t.Error("NewCodec() should default to the native order")
	}
}
