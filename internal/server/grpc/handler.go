package grpc

import (
	"context"
	"encoding/json"

	"github.com/dmitrijs2005/credvault/internal/api"
	"github.com/dmitrijs2005/credvault/internal/server/services"
	"github.com/dmitrijs2005/credvault/internal/server/validation"
	"github.com/dmitrijs2005/credvault/internal/vault"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// decode validates in against schema and unmarshals it into v.
func (s *GRPCServer) decode(ctx context.Context, schema validation.Schema, in *structpb.Struct, v any) error {
	raw, err := api.Raw(in)
	if err != nil {
		return status.Error(codes.InvalidArgument, "malformed request")
	}
	if err := s.validator.Validate(schema, raw); err != nil {
		return s.fail(ctx, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return nil
}

// fail logs err when it hides an internal failure and converts it to a status.
func (s *GRPCServer) fail(ctx context.Context, err error) error {
	st := toStatus(err)
	if status.Code(st) == codes.Internal {
		s.logger.Error(ctx, err.Error())
	}
	return st
}

func (s *GRPCServer) reply(ctx context.Context, v any) (*structpb.Struct, error) {
	out, err := api.Encode(v)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return out, nil
}

func (s *GRPCServer) results(ctx context.Context, c vault.Category, rs []services.Result) (*structpb.Struct, error) {
	resp := api.RecordsResponse{Category: c, Results: make([]api.RecordResult, 0, len(rs))}
	for _, r := range rs {
		if r.Err != nil {
			s.logger.Warn(ctx, "record could not be decrypted", "category", c, "id", r.Record.RecordID())
		}
		res, err := api.NewRecordResult(r.Record, r.Err)
		if err != nil {
			return nil, s.fail(ctx, err)
		}
		resp.Results = append(resp.Results, res)
	}
	return s.reply(ctx, resp)
}

func (s *GRPCServer) Ping(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return s.reply(ctx, api.PingResponse{Status: "OK"})
}

func (s *GRPCServer) Register(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req api.RegisterRequest
	if err := s.decode(ctx, validation.SchemaRegister, in, &req); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "Registration request", "username", req.Username)

	owner, err := s.owners.Register(ctx, services.Registration{
		Username:      req.Username,
		Email:         req.Email,
		FullName:      req.FullName,
		ContactNumber: req.ContactNumber,
		Password:      req.Password,
	})
	if err != nil {
		return nil, s.fail(ctx, err)
	}

	s.logger.Info(ctx, "Registered", "username", req.Username, "owner_id", owner.ID)
	return s.reply(ctx, api.RegisterResponse{OwnerID: owner.ID})
}

func (s *GRPCServer) Login(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req api.LoginRequest
	if err := s.decode(ctx, validation.SchemaLogin, in, &req); err != nil {
		return nil, err
	}

	token, err := s.owners.Login(ctx, req.Username, req.Password)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return s.reply(ctx, api.LoginResponse{AccessToken: token})
}

func (s *GRPCServer) AddRecord(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := ownerIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var req api.AddRecordRequest
	if err := s.decode(ctx, validation.SchemaAddRecord, in, &req); err != nil {
		return nil, err
	}

	rec, err := vault.DecodeRecord(req.Category, req.Record)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	added, err := s.vaults.Add(ctx, ownerID, rec)
	if err != nil {
		return nil, s.fail(ctx, err)
	}

	res, err := api.NewRecordResult(added, nil)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return s.reply(ctx, api.RecordResponse{Category: req.Category, Result: res})
}

func (s *GRPCServer) SearchRecords(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := ownerIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var req api.SearchRecordsRequest
	if err := s.decode(ctx, validation.SchemaSearchRecords, in, &req); err != nil {
		return nil, err
	}
	if req.Field == "" {
		req.Field = vault.DefaultField(req.Category)
	}

	rs, err := s.vaults.Search(ctx, ownerID, req.Category, req.Field, req.Query)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return s.results(ctx, req.Category, rs)
}

func (s *GRPCServer) ListRecords(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := ownerIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var req api.ListRecordsRequest
	if err := s.decode(ctx, validation.SchemaListRecords, in, &req); err != nil {
		return nil, err
	}

	rs, err := s.vaults.List(ctx, ownerID, req.Category)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return s.results(ctx, req.Category, rs)
}

// UpdateRecord reports a secret that cannot be decrypted after a successful
// update in the result, not as a failed call.
func (s *GRPCServer) UpdateRecord(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := ownerIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var req api.UpdateRecordRequest
	if err := s.decode(ctx, validation.SchemaUpdateRecord, in, &req); err != nil {
		return nil, err
	}

	r, err := s.vaults.Update(ctx, ownerID, req.Category, req.ID, req.Patch)
	if err != nil {
		return nil, s.fail(ctx, err)
	}

	res, err := api.NewRecordResult(r.Record, r.Err)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return s.reply(ctx, api.RecordResponse{Category: req.Category, Result: res})
}

func (s *GRPCServer) RemoveRecord(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	ownerID, err := ownerIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var req api.RemoveRecordRequest
	if err := s.decode(ctx, validation.SchemaRemoveRecord, in, &req); err != nil {
		return nil, err
	}

	if err := s.vaults.Remove(ctx, ownerID, req.Category, req.ID); err != nil {
		return nil, s.fail(ctx, err)
	}
	return s.reply(ctx, api.RemoveRecordResponse{Removed: req.ID})
}

func (s *GRPCServer) IssueRecovery(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req api.IssueRecoveryRequest
	if err := s.decode(ctx, validation.SchemaIssueRecovery, in, &req); err != nil {
		return nil, err
	}

	if err := s.recovery.IssueRecovery(ctx, req.Email); err != nil {
		return nil, s.fail(ctx, err)
	}
	return s.reply(ctx, api.IssueRecoveryResponse{ValiditySeconds: int64(s.otpValidity.Seconds())})
}

func (s *GRPCServer) VerifyRecovery(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req api.VerifyRecoveryRequest
	if err := s.decode(ctx, validation.SchemaVerifyRecovery, in, &req); err != nil {
		return nil, err
	}

	secret, err := s.recovery.VerifyRecovery(ctx, req.Email, req.Code)
	if err != nil {
		return nil, s.fail(ctx, err)
	}
	return s.reply(ctx, api.VerifyRecoveryResponse{Secret: secret})
}
