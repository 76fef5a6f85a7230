package tlv

import (
	"fmt"

	"github.com/danmuck/tlvwire/internal/protocol/wire"
)

// Numeric id bases.
const (
	BaseReserved   uint32 = 0
	BaseExtensions uint32 = 20000
	BaseUser       uint32 = 40000
	BaseTemp       uint32 = 60000
)

// Meta type bits occupy the high half of a type code.
const (
	MetaNone       uint32 = 0
	MetaString     uint32 = 1 << 16
	MetaUint       uint32 = 1 << 17
	MetaRaw        uint32 = 1 << 18
	MetaBool       uint32 = 1 << 19
	MetaQword      uint32 = 1 << 20
	MetaCompressed uint32 = 1 << 29
	MetaGroup      uint32 = 1 << 30
	MetaComplex    uint32 = 1 << 31

	metaMask  uint32 = 0xFFFF0000
	valueMask uint32 = 0x0000FFFF
)

// Flag values carried in Flags tlvs.
const (
	LoadLibraryFlagOnDisk    uint32 = 1 << 0
	LoadLibraryFlagExtension uint32 = 1 << 1
	LoadLibraryFlagLocal     uint32 = 1 << 2

	ChannelFlagSynchronous uint32 = 1 << 0
	ChannelFlagCompress    uint32 = 1 << 1
)

const (
	PacketTypeSize = 4
	TypeSize       = 4
)

// PacketType classifies the outer envelope.
type PacketType uint32

const (
	PacketRequest       PacketType = 0
	PacketResponse      PacketType = 1
	PacketPlainRequest  PacketType = 10
	PacketPlainResponse PacketType = 11
	PacketInvalid       PacketType = 0xFFFF
)

var packetTypeNames = map[PacketType]string{
	PacketRequest:       "request",
	PacketResponse:      "response",
	PacketPlainRequest:  "plain_request",
	PacketPlainResponse: "plain_response",
}

// PacketTypeFromCode maps any code to a packet type. Unknown codes map to
// PacketInvalid.
func PacketTypeFromCode(code uint32) PacketType {
	pt := PacketType(code)
	if _, ok := packetTypeNames[pt]; ok {
		return pt
	}
	return PacketInvalid
}

// PacketTypeFromBytes decodes an order A packet type code from the first four
// bytes of b.
func PacketTypeFromBytes(b []byte) (PacketType, error) {
	code, err := wire.A.Uint32(b)
	if err != nil {
		return PacketInvalid, err
	}
	return PacketTypeFromCode(code), nil
}

func (p PacketType) Code() uint32 {
	return uint32(p)
}

func (p PacketType) Bytes() []byte {
	return wire.A.Bytes(uint32(p))
}

func (p PacketType) String() string {
	if name, ok := packetTypeNames[p]; ok {
		return name
	}
	return "invalid"
}

// PacketTypes returns every named packet type except PacketInvalid.
func PacketTypes() []PacketType {
	return []PacketType{PacketRequest, PacketResponse, PacketPlainRequest, PacketPlainResponse}
}

// Type is a tlv value type: a numeric id combined with meta type bits.
type Type uint32

const (
	Any       = Type(0 | MetaNone)
	Method    = Type(1 | MetaString)
	RequestID = Type(2 | MetaString)
	Exception = Type(3 | MetaGroup)
	Result    = Type(4 | MetaUint)

	// Arguments
	String = Type(10 | MetaString)
	Uint   = Type(11 | MetaUint)
	Bool   = Type(12 | MetaBool)

	// Extended
	Length = Type(25 | MetaUint)
	Data   = Type(26 | MetaRaw)
	Flags  = Type(27 | MetaUint)

	// Channels
	ChannelID       = Type(50 | MetaUint)
	ChannelType     = Type(51 | MetaString)
	ChannelData     = Type(52 | MetaRaw)
	ChannelClass    = Type(53 | MetaUint)
	ChannelParentID = Type(54 | MetaUint)

	SeekWhence = Type(70 | MetaUint)
	SeekOffset = Type(71 | MetaUint)
	SeekPos    = Type(72 | MetaUint)

	ExceptionCode   = Type(300 | MetaUint)
	ExceptionString = Type(301 | MetaString)

	// Libraries and migration
	LibraryPath          = Type(400 | MetaString)
	TargetPath           = Type(401 | MetaString)
	MigratePID           = Type(402 | MetaUint)
	MigratePayloadLength = Type(403 | MetaUint)
	MigratePayload       = Type(404 | MetaString)
	MigrateArch          = Type(405 | MetaUint)
	MigrateTechnique     = Type(406 | MetaUint)
	MigrateBaseAddress   = Type(407 | MetaUint)
	MigrateEntryPoint    = Type(408 | MetaUint)
	MigrateSocketPath    = Type(409 | MetaString)
	MigrateStubLength    = Type(410 | MetaUint)
	MigrateStub          = Type(411 | MetaString)

	// Transports
	TransportType              = Type(430 | MetaUint)
	TransportURL               = Type(431 | MetaString)
	TransportUserAgent         = Type(432 | MetaString)
	TransportTimeout           = Type(433 | MetaUint)
	TransportSessionExpiration = Type(434 | MetaUint)
	TransportCertificateHash   = Type(435 | MetaRaw)
	TransportProxyHost         = Type(436 | MetaString)
	TransportProxyUser         = Type(437 | MetaString)
	TransportProxyPass         = Type(438 | MetaString)
	TransportRetryTotal        = Type(439 | MetaUint)
	TransportRetryWait         = Type(440 | MetaUint)
	TransportHeaders           = Type(441 | MetaString)
	TransportGroup             = Type(442 | MetaGroup)

	// Identity
	MachineID   = Type(460 | MetaString)
	UUID        = Type(461 | MetaRaw)
	SessionGUID = Type(462 | MetaRaw)

	// Encryption
	RSAPubKey             = Type(550 | MetaString)
	SymmetricKeyType      = Type(551 | MetaUint)
	SymmetricKey          = Type(552 | MetaRaw)
	EncryptedSymmetricKey = Type(553 | MetaRaw)

	// Pivots
	PivotID            = Type(650 | MetaRaw)
	PivotStageData     = Type(651 | MetaRaw)
	PivotStageDataSize = Type(652 | MetaUint)
	PivotNamedPipeName = Type(653 | MetaString)

	// Peering
	PeerHost  = Type(1500 | MetaString)
	PeerPort  = Type(1501 | MetaUint)
	LocalHost = Type(1502 | MetaString)
	LocalPort = Type(1503 | MetaUint)

	// Generic
	Extensions = Type(BaseExtensions | MetaComplex)
	User       = Type(BaseUser | MetaComplex)
	Temp       = Type(BaseTemp | MetaComplex)

	Invalid Type = 0xFFFFFFFF
)

// registry is the full table of named types in wire order. Every code must be
// unique; TypeFromCode relies on it.
var registry = []struct {
	t    Type
	name string
}{
	{Any, "any"},
	{Method, "method"},
	{RequestID, "request_id"},
	{Exception, "exception"},
	{Result, "result"},
	{String, "string"},
	{Uint, "uint"},
	{Bool, "bool"},
	{Length, "length"},
	{Data, "data"},
	{Flags, "flags"},
	{ChannelID, "channel_id"},
	{ChannelType, "channel_type"},
	{ChannelData, "channel_data"},
	{ChannelClass, "channel_class"},
	{ChannelParentID, "channel_parent_id"},
	{SeekWhence, "seek_whence"},
	{SeekOffset, "seek_offset"},
	{SeekPos, "seek_pos"},
	{ExceptionCode, "exception_code"},
	{ExceptionString, "exception_string"},
	{LibraryPath, "library_path"},
	{TargetPath, "target_path"},
	{MigratePID, "migrate_pid"},
	{MigratePayloadLength, "migrate_payload_length"},
	{MigratePayload, "migrate_payload"},
	{MigrateArch, "migrate_arch"},
	{MigrateTechnique, "migrate_technique"},
	{MigrateBaseAddress, "migrate_base_address"},
	{MigrateEntryPoint, "migrate_entry_point"},
	{MigrateSocketPath, "migrate_socket_path"},
	{MigrateStubLength, "migrate_stub_length"},
	{MigrateStub, "migrate_stub"},
	{TransportType, "transport_type"},
	{TransportURL, "transport_url"},
	{TransportUserAgent, "transport_user_agent"},
	{TransportTimeout, "transport_timeout"},
	{TransportSessionExpiration, "transport_session_expiration"},
	{TransportCertificateHash, "transport_certificate_hash"},
	{TransportProxyHost, "transport_proxy_host"},
	{TransportProxyUser, "transport_proxy_user"},
	{TransportProxyPass, "transport_proxy_pass"},
	{TransportRetryTotal, "transport_retry_total"},
	{TransportRetryWait, "transport_retry_wait"},
	{TransportHeaders, "transport_headers"},
	{TransportGroup, "transport_group"},
	{MachineID, "machine_id"},
	{UUID, "uuid"},
	{SessionGUID, "session_guid"},
	{RSAPubKey, "rsa_pub_key"},
	{SymmetricKeyType, "symmetric_key_type"},
	{SymmetricKey, "symmetric_key"},
	{EncryptedSymmetricKey, "encrypted_symmetric_key"},
	{PivotID, "pivot_id"},
	{PivotStageData, "pivot_stage_data"},
	{PivotStageDataSize, "pivot_stage_data_size"},
	{PivotNamedPipeName, "pivot_named_pipe_name"},
	{PeerHost, "peer_host"},
	{PeerPort, "peer_port"},
	{LocalHost, "local_host"},
	{LocalPort, "local_port"},
	{Extensions, "extensions"},
	{User, "user"},
	{Temp, "temp"},
}

var typeNames = func() map[Type]string {
	m := make(map[Type]string, len(registry))
	for _, e := range registry {
		m[e.t] = e.name
	}
	return m
}()

// TypeFromCode maps any code to a named type. Unknown codes map to Invalid.
func TypeFromCode(code uint32) Type {
	t := Type(code)
	if _, ok := typeNames[t]; ok {
		return t
	}
	return Invalid
}

// TypeFromBytes decodes an order A type code from the first four bytes of b.
func TypeFromBytes(b []byte) (Type, error) {
	code, err := wire.A.Uint32(b)
	if err != nil {
		return Invalid, err
	}
	return TypeFromCode(code), nil
}

// Types returns every named type except Invalid, in registry order.
func Types() []Type {
	out := make([]Type, 0, len(registry))
	for _, e := range registry {
		out = append(out, e.t)
	}
	return out
}

func (t Type) Code() uint32 {
	return uint32(t)
}

func (t Type) Bytes() []byte {
	return wire.A.Bytes(uint32(t))
}

// Meta returns the meta type bits.
func (t Type) Meta() uint32 {
	return uint32(t) & metaMask
}

// Value returns the low 16 bits of the code. Ids built on the Extensions,
// User or Temp bases past 0xFFFF lose their high bits here.
func (t Type) Value() uint32 {
	return uint32(t) & valueMask
}

func (t Type) IsCompressed() bool {
	return t != Invalid && t.Meta()&MetaCompressed != 0
}

// IsGroup reports whether the value buffer holds a nested tlv list.
func (t Type) IsGroup() bool {
	return t != Invalid && t.Meta()&(MetaGroup|MetaComplex) != 0
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	if t == Invalid {
		return "invalid"
	}
	return fmt.Sprintf("type(%#x)", uint32(t))
}
