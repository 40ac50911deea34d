package httpapi

import (
	"bytes"
	"io"
	"mime/multipart"
	"strconv"

	"github.com/itchub/edu-dashboard/backend"
	"github.com/itchub/edu-dashboard/users"
)

// multipartBody builds the form the user create/update endpoints expect.
// The returned content type carries the boundary and must be set verbatim.
func multipartBody(fields map[string]string, photo *backend.PhotoUpload) (io.Reader, string, error) {
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)

	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, "", err
		}
	}

	if photo != nil {
		part, err := writer.CreateFormFile("photo", photo.Filename)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(photo.Content); err != nil {
			return nil, "", err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return buf, writer.FormDataContentType(), nil
}

// partialFields flattens the set fields of a Partial into form values
func partialFields(p users.Partial) map[string]string {
	fields := map[string]string{}
	setString := func(name string, value *string) {
		if value != nil {
			fields[name] = *value
		}
	}
	setString("username", p.Username)
	setString("surname", p.Surname)
	setString("lastname", p.Lastname)
	setString("uuid", p.MemberID)
	setString("phone_number", p.PhoneNumber)
	setString("tg_username", p.TgUsername)
	setString("course", p.Course)
	setString("direction", p.Direction)
	setString("photo", p.Photo)
	if p.Level != nil {
		fields["level"] = string(*p.Level)
	}
	if p.Coins != nil {
		fields["coins"] = strconv.Itoa(*p.Coins)
	}
	if p.Active != nil {
		fields["is_active"] = strconv.FormatBool(*p.Active)
	}
	return fields
}
