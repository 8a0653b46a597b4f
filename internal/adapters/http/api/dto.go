package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	service "github.com/okian/bingo/internal/app"
	"github.com/okian/bingo/internal/domain/model"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type mixRequest struct {
	Easy   int `json:"easy" validate:"gte=0,lte=1024"`
	Normal int `json:"normal" validate:"gte=0,lte=1024"`
	Hard   int `json:"hard" validate:"gte=0,lte=1024"`
}

// generateRequest mirrors the OpenAPI schema for board generation.
type generateRequest struct {
	Size      int         `json:"size" validate:"gte=0,lte=1024"`
	Mix       *mixRequest `json:"mix,omitempty"`
	Seed      int64       `json:"seed" validate:"gte=0,lte=9007199254740991"`
	Columns   int         `json:"columns" validate:"gte=0,lte=1024"`
	Order     []int       `json:"order,omitempty" validate:"omitempty,max=1024,dive,gte=0"`
	Exhausted []string    `json:"exhausted,omitempty" validate:"omitempty,dive,required"`
}

func (g generateRequest) toService() service.GenerateRequest {
	req := service.GenerateRequest{
		Size:      g.Size,
		Seed:      g.Seed,
		Columns:   g.Columns,
		Order:     g.Order,
		Exhausted: g.Exhausted,
	}
	if g.Mix != nil {
		req.Mix = model.Mix{Easy: g.Mix.Easy, Normal: g.Mix.Normal, Hard: g.Mix.Hard}
	}
	return req
}

type errorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type boardsResponse struct {
	Boards []model.Board `json:"boards"`
	Count  int           `json:"count"`
}

// decodeGenerateRequest reads an optional JSON body. An empty body asks for
// the default board.
func decodeGenerateRequest(w http.ResponseWriter, r *http.Request) (generateRequest, error) {
	var req generateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return generateRequest{}, fmt.Errorf("decode body: %w", err)
	}
	if err := validate.Struct(req); err != nil {
		return generateRequest{}, validationError(err)
	}
	return req, nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "generateRequest.")
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
	}
	return errors.New(strings.Join(msgs, "; "))
}
