package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/dashkit-io/board-engine/pkg/apperrors"
	"github.com/dashkit-io/board-engine/pkg/services"
)

// HeaderAPIKey carries the shared API key that grants read access to
// connections and queries regardless of owner.
const HeaderAPIKey = "X-API-Key"

var validate = validator.New()

// pathID parses the {id} path segment as an ObjectID.
func pathID(r *http.Request) (bson.ObjectID, error) {
	id, err := bson.ObjectIDFromHex(r.PathValue("id"))
	if err != nil {
		return bson.ObjectID{}, apperrors.BadRequest("Invalid id format")
	}
	return id, nil
}

// requesterFrom extracts the caller's identity: the user_id query parameter
// and the optional shared API key header.
func requesterFrom(r *http.Request) services.Requester {
	return services.Requester{
		UserID: r.URL.Query().Get("user_id"),
		APIKey: r.Header.Get(HeaderAPIKey),
	}
}

// decodeAndValidate decodes the request body into dst and runs struct
// validation, mapping failures to bad-request errors with field context.
func decodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.BadRequest("Invalid request body")
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			parts := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				parts = append(parts, fmt.Sprintf("%s: failed %s validation", fe.Field(), fe.Tag()))
			}
			return apperrors.BadRequest("Request validation error - " + strings.Join(parts, ", "))
		}
		return apperrors.BadRequest("Request validation error")
	}
	return nil
}

// optionalObjectID parses a non-empty hex string into an ObjectID pointer.
// Empty input yields nil.
func optionalObjectID(hex string) (*bson.ObjectID, error) {
	if hex == "" {
		return nil, nil
	}
	id, err := bson.ObjectIDFromHex(hex)
	if err != nil {
		return nil, apperrors.BadRequest("Invalid id format")
	}
	return &id, nil
}
