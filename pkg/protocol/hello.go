package protocol

// HelloStatus is the result of connection setup.
type HelloStatus uint8

const (
	HelloOK              HelloStatus = 0x00
	HelloVersionMismatch HelloStatus = 0x01
	HelloSessionExpired  HelloStatus = 0x02
	HelloServerBusy      HelloStatus = 0x03
	HelloInternalError   HelloStatus = 0x04
)

// String returns the hello status name.
func (hs HelloStatus) String() string {
	switch hs {
	case HelloOK:
		return "OK"
	case HelloVersionMismatch:
		return "VersionMismatch"
	case HelloSessionExpired:
		return "SessionExpired"
	case HelloServerBusy:
		return "ServerBusy"
	case HelloInternalError:
		return "InternalError"
	default:
		return "Unknown"
	}
}

// Version is the protocol version as major.minor. Majors must match;
// the server tolerates any minor.
type Version struct {
	Major uint8
	Minor uint8
}

// CurrentVersion is the protocol version this package implements.
var CurrentVersion = Version{Major: 1, Minor: 0}

// ClientHello is the first frame the client sends after the WebSocket opens.
// SessionID and LastSeq are zero-valued on a fresh connect; on reconnect
// they identify the detached session to resume and the last patches frame
// the client applied.
type ClientHello struct {
	Version   Version
	SessionID string
	LastSeq   uint64
}

// ServerHello is the server's response. On success it carries the session ID
// (newly minted or resumed) and the sequence number the next patches frame
// will use.
type ServerHello struct {
	Status     HelloStatus
	SessionID  string
	NextSeq    uint64
	ServerTime uint64 // Unix milliseconds
}

// EncodeClientHello encodes a hello frame payload sent by the client.
func EncodeClientHello(ch *ClientHello) []byte {
	e := NewEncoder()
	e.WriteByte(ch.Version.Major)
	e.WriteByte(ch.Version.Minor)
	e.WriteString(ch.SessionID)
	e.WriteUvarint(ch.LastSeq)
	return e.Bytes()
}

// DecodeClientHello decodes a hello frame payload sent by the client.
func DecodeClientHello(data []byte) (*ClientHello, error) {
	d := NewDecoder(data)

	major, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	minor, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	sessionID, err := d.ReadString()
	if err != nil {
		return nil, err
	}
	lastSeq, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}

	return &ClientHello{
		Version:   Version{Major: major, Minor: minor},
		SessionID: sessionID,
		LastSeq:   lastSeq,
	}, nil
}

// EncodeServerHello encodes a hello frame payload sent by the server.
func EncodeServerHello(sh *ServerHello) []byte {
	e := NewEncoder()
	e.WriteByte(byte(sh.Status))
	e.WriteString(sh.SessionID)
	e.WriteUvarint(sh.NextSeq)
	e.WriteUint64(sh.ServerTime)
	return e.Bytes()
}

// DecodeServerHello decodes a hello frame payload sent by the server.
func DecodeServerHello(data []byte) (*ServerHello, error) {
	d := NewDecoder(data)

	status, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	sessionID, err := d.ReadString()
	if err != nil {
		return nil, err
	}
	nextSeq, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	serverTime, err := d.ReadUint64()
	if err != nil {
		return nil, err
	}

	return &ServerHello{
		Status:     HelloStatus(status),
		SessionID:  sessionID,
		NextSeq:    nextSeq,
		ServerTime: serverTime,
	}, nil
}
