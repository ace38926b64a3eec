package grpc

import (
	"fmt"
	"math"
	"time"

	"github.com/dmitrijs2005/authkit/internal/common"
	"github.com/dmitrijs2005/authkit/internal/server/models"
	"google.golang.org/protobuf/types/known/structpb"
)

func fieldValue(in *structpb.Struct, key string) (*structpb.Value, bool) {
	if in == nil {
		return nil, false
	}
	v, ok := in.GetFields()[key]
	if !ok {
		return nil, false
	}
	if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
		return nil, false
	}
	return v, true
}

// stringField returns the string at key; ok is false when the key is
// absent or null.
func stringField(in *structpb.Struct, key string) (value string, ok bool, err error) {
	v, ok := fieldValue(in, key)
	if !ok {
		return "", false, nil
	}
	sv, isString := v.GetKind().(*structpb.Value_StringValue)
	if !isString {
		return "", false, fmt.Errorf("%w: field %q must be a string", common.ErrorValidation, key)
	}
	return sv.StringValue, true, nil
}

// intField returns the integral number at key.
func intField(in *structpb.Struct, key string) (value int64, ok bool, err error) {
	v, ok := fieldValue(in, key)
	if !ok {
		return 0, false, nil
	}
	nv, isNumber := v.GetKind().(*structpb.Value_NumberValue)
	if !isNumber {
		return 0, false, fmt.Errorf("%w: field %q must be a number", common.ErrorValidation, key)
	}
	f := nv.NumberValue
	if f != math.Trunc(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, false, fmt.Errorf("%w: field %q must be an integer", common.ErrorValidation, key)
	}
	return int64(f), true, nil
}

func userPayload(u models.UserView) map[string]any {
	return map[string]any{
		"id":           u.ID,
		"email":        u.Email,
		"profile_name": u.ProfileName,
		"role":         string(u.Role),
		"is_active":    u.IsActive,
		"created_at":   u.CreatedAt.UTC().Format(time.RFC3339),
		"updated_at":   u.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func okPayload() map[string]any {
	return map[string]any{"status": "OK"}
}
