// Package api describes the credvault wire protocol shared by the server and
// the client: the gRPC service name, its methods and the JSON shape of every
// request and response. Messages travel as google.protobuf.Struct.
package api

import (
	"encoding/json"

	"github.com/dmitrijs2005/credvault/internal/vault"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "credvault.v1.VaultService"

const (
	MethodPing           = "Ping"
	MethodRegister       = "Register"
	MethodLogin          = "Login"
	MethodAddRecord      = "AddRecord"
	MethodSearchRecords  = "SearchRecords"
	MethodListRecords    = "ListRecords"
	MethodUpdateRecord   = "UpdateRecord"
	MethodRemoveRecord   = "RemoveRecord"
	MethodIssueRecovery  = "IssueRecovery"
	MethodVerifyRecovery = "VerifyRecovery"
)

// FullMethod returns the "/service/method" path of method.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

type PingResponse struct {
	Status string `json:"status"`
}

type RegisterRequest struct {
	Username      string `json:"username"`
	Email         string `json:"email"`
	FullName      string `json:"fullName"`
	ContactNumber string `json:"contactNumber,omitempty"`
	Password      string `json:"password"`
}

type RegisterResponse struct {
	OwnerID string `json:"ownerId"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"accessToken"`
}

type AddRecordRequest struct {
	Category vault.Category  `json:"category"`
	Record   json.RawMessage `json:"record"`
}

// RecordResult is one record of a response. When the secret of the record
// could not be decrypted Error is set and the secret is left empty.
type RecordResult struct {
	Record json.RawMessage `json:"record"`
	Error  string          `json:"error,omitempty"`
}

type RecordResponse struct {
	Category vault.Category `json:"category"`
	Result   RecordResult   `json:"result"`
}

type SearchRecordsRequest struct {
	Category vault.Category `json:"category"`
	Query    string         `json:"query"`
	Field    vault.Field    `json:"field,omitempty"`
}

type ListRecordsRequest struct {
	Category vault.Category `json:"category"`
}

type RecordsResponse struct {
	Category vault.Category `json:"category"`
	Results  []RecordResult `json:"results"`
}

type UpdateRecordRequest struct {
	Category vault.Category `json:"category"`
	ID       string         `json:"id"`
	Patch    vault.Patch    `json:"patch"`
}

type RemoveRecordRequest struct {
	Category vault.Category `json:"category"`
	ID       string         `json:"id"`
}

type RemoveRecordResponse struct {
	Removed string `json:"removed"`
}

type IssueRecoveryRequest struct {
	Email string `json:"email"`
}

type IssueRecoveryResponse struct {
	ValiditySeconds int64 `json:"validitySeconds"`
}

type VerifyRecoveryRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type VerifyRecoveryResponse struct {
	Secret string `json:"secret"`
}
