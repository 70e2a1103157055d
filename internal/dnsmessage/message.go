package dnsmessage

import "github.com/dnsscience/resolverd/internal/bytebuffer"

// Message is a full DNS message: header plus the four record sections.
type Message struct {
	Header      Header
	Questions   []Question
	Answers     []Record
	Authorities []Record
	Additionals []Record
}

// NewMessage returns a Message with a zeroed header and empty sections,
// ready to have a question and an ID attached.
func NewMessage() *Message {
	return &Message{}
}

// DecodeMessage parses a full message out of buf, starting at the buffer's
// current cursor (position 0 for a fresh buffer from FromBytes).
func DecodeMessage(buf *bytebuffer.ByteBuffer) (*Message, error) {
	m := &Message{}

	if err := m.Header.Decode(buf); err != nil {
		return nil, err
	}

	m.Questions = make([]Question, 0, m.Header.QDCount)
	for i := uint16(0); i < m.Header.QDCount; i++ {
		var q Question
		if err := q.Decode(buf); err != nil {
			return nil, err
		}
		m.Questions = append(m.Questions, q)
	}

	var err error
	if m.Answers, err = decodeRecords(buf, m.Header.ANCount); err != nil {
		return nil, err
	}
	if m.Authorities, err = decodeRecords(buf, m.Header.NSCount); err != nil {
		return nil, err
	}
	if m.Additionals, err = decodeRecords(buf, m.Header.ARCount); err != nil {
		return nil, err
	}

	return m, nil
}

func decodeRecords(buf *bytebuffer.ByteBuffer, count uint16) ([]Record, error) {
	recs := make([]Record, 0, count)
	for i := uint16(0); i < count; i++ {
		r, err := DecodeRecord(buf)
		if err != nil {
			return nil, err
		}
		recs = append(recs, r)
	}
	return recs, nil
}

// Encode writes the message to buf, syncing the header's section counts to
// the actual length of each slice before writing the header itself. Any
// UnknownRecord present in a section is dropped by EncodeRecord and does
// not contribute to its section's count.
func (m *Message) Encode(buf *bytebuffer.ByteBuffer) error {
	m.Header.QDCount = uint16(len(m.Questions))
	m.Header.ANCount = countEncodable(m.Answers)
	m.Header.NSCount = countEncodable(m.Authorities)
	m.Header.ARCount = countEncodable(m.Additionals)

	if err := m.Header.Encode(buf); err != nil {
		return err
	}

	for i := range m.Questions {
		if err := m.Questions[i].Encode(buf); err != nil {
			return err
		}
	}

	for _, sec := range [][]Record{m.Answers, m.Authorities, m.Additionals} {
		for _, r := range sec {
			if err := EncodeRecord(buf, r); err != nil {
				return err
			}
		}
	}

	return nil
}

func countEncodable(recs []Record) uint16 {
	var n uint16
	for _, r := range recs {
		if _, ok := r.(UnknownRecord); ok {
			continue
		}
		n++
	}
	return n
}
