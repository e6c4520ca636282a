package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/credvault/internal/api"
	"github.com/dmitrijs2005/credvault/internal/common"
	"github.com/dmitrijs2005/credvault/internal/vault"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn

	mu          sync.RWMutex
	accessToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *GRPCClient) setToken(t string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = t
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if t := s.token(); t != "" {
		ctx = withAccessToken(ctx, t)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

// NewGRPCClient connects to endpointURL without TLS. Extra dial options are
// appended, which lets tests dial in-process listeners.
func NewGRPCClient(endpointURL string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}

	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, opts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	return c, nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

// call sends req to method and decodes the reply into resp.
func (s *GRPCClient) call(ctx context.Context, method string, req, resp any) error {
	in, err := api.Encode(req)
	if err != nil {
		return err
	}
	out := new(structpb.Struct)
	if err := s.conn.Invoke(ctx, api.FullMethod(method), in, out); err != nil {
		return s.mapError(err)
	}
	if resp == nil {
		return nil
	}
	return api.Decode(out, resp)
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	var resp api.PingResponse
	if err := s.call(ctx, api.MethodPing, struct{}{}, &resp); err != nil {
		return err
	}
	if resp.Status != "OK" {
		return ErrUnavailable
	}
	return nil
}

func (s *GRPCClient) Register(ctx context.Context, req api.RegisterRequest) (string, error) {
	var resp api.RegisterResponse
	if err := s.call(ctx, api.MethodRegister, req, &resp); err != nil {
		return "", err
	}
	return resp.OwnerID, nil
}

// Login stores the access token used by every later call.
func (s *GRPCClient) Login(ctx context.Context, username, password string) error {
	var resp api.LoginResponse
	if err := s.call(ctx, api.MethodLogin, api.LoginRequest{Username: username, Password: password}, &resp); err != nil {
		return err
	}
	s.setToken(resp.AccessToken)
	return nil
}

func (s *GRPCClient) Logout() {
	s.setToken("")
}

func (s *GRPCClient) AddRecord(ctx context.Context, r vault.Record) (vault.Record, error) {
	req, err := api.NewAddRecordRequest(r)
	if err != nil {
		return nil, err
	}
	var resp api.RecordResponse
	if err := s.call(ctx, api.MethodAddRecord, req, &resp); err != nil {
		return nil, err
	}
	return resp.Result.DecodeRecord(resp.Category)
}

func (s *GRPCClient) SearchRecords(ctx context.Context, c vault.Category, f vault.Field, query string) ([]Result, error) {
	var resp api.RecordsResponse
	if err := s.call(ctx, api.MethodSearchRecords, api.SearchRecordsRequest{Category: c, Field: f, Query: query}, &resp); err != nil {
		return nil, err
	}
	return toResults(resp)
}

func (s *GRPCClient) ListRecords(ctx context.Context, c vault.Category) ([]Result, error) {
	var resp api.RecordsResponse
	if err := s.call(ctx, api.MethodListRecords, api.ListRecordsRequest{Category: c}, &resp); err != nil {
		return nil, err
	}
	return toResults(resp)
}

func (s *GRPCClient) UpdateRecord(ctx context.Context, c vault.Category, id string, p vault.Patch) (Result, error) {
	var resp api.RecordResponse
	if err := s.call(ctx, api.MethodUpdateRecord, api.UpdateRecordRequest{Category: c, ID: id, Patch: p}, &resp); err != nil {
		return Result{}, err
	}
	r, err := resp.Result.DecodeRecord(resp.Category)
	if err != nil {
		return Result{}, err
	}
	return Result{Record: r, Error: resp.Result.Error}, nil
}

func (s *GRPCClient) RemoveRecord(ctx context.Context, c vault.Category, id string) error {
	return s.call(ctx, api.MethodRemoveRecord, api.RemoveRecordRequest{Category: c, ID: id}, nil)
}

// IssueRecovery asks for a code to be sent to email and returns how many
// seconds it stays valid.
func (s *GRPCClient) IssueRecovery(ctx context.Context, email string) (int64, error) {
	var resp api.IssueRecoveryResponse
	if err := s.call(ctx, api.MethodIssueRecovery, api.IssueRecoveryRequest{Email: email}, &resp); err != nil {
		return 0, err
	}
	return resp.ValiditySeconds, nil
}

func (s *GRPCClient) VerifyRecovery(ctx context.Context, email, code string) (string, error) {
	var resp api.VerifyRecoveryResponse
	if err := s.call(ctx, api.MethodVerifyRecovery, api.VerifyRecoveryRequest{Email: email, Code: code}, &resp); err != nil {
		return "", err
	}
	return resp.Secret, nil
}

func toResults(resp api.RecordsResponse) ([]Result, error) {
	out := make([]Result, 0, len(resp.Results))
	for _, r := range resp.Results {
		rec, err := r.DecodeRecord(resp.Category)
		if err != nil {
			return nil, err
		}
		out = append(out, Result{Record: rec, Error: r.Error})
	}
	return out, nil
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", common.ErrorValidation, st.Message())
	case codes.NotFound:
		return fmt.Errorf("%w: %s", common.ErrorNotFound, st.Message())
	case codes.AlreadyExists:
		return common.ErrorAlreadyExists
	case codes.DataLoss:
		return fmt.Errorf("%w: %s", common.ErrDecryption, st.Message())
	case codes.PermissionDenied:
		return common.ErrOTPInvalid
	case codes.FailedPrecondition:
		return common.ErrOTPExpired
	case codes.Aborted:
		return common.ErrVersionConflict
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
