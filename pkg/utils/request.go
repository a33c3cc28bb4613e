package utils

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// BindAndValidate membaca body JSON lalu menjalankan validator echo.
// Error yang dikembalikan sudah siap ditampilkan ke klien (400).
func BindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return fmt.Errorf("Invalid request payload: %v", err)
	}
	if c.Echo().Validator == nil {
		return nil
	}
	return c.Validate(req)
}

// ParamID membaca path param numerik, contoh :id.
func ParamID(c echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s harus berupa angka positif", name)
	}
	return id, nil
}

// ReadImage membaca file multipart "file" dan mengembalikan isi serta content type-nya.
func ReadImage(c echo.Context, maxSize int64) ([]byte, string, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, "", fmt.Errorf("file wajib diunggah: %v", err)
	}
	if fh.Size > maxSize {
		return nil, "", fmt.Errorf("ukuran file melebihi %d byte", maxSize)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxSize+1))
	if err != nil {
		return nil, "", err
	}
	if int64(len(data)) > maxSize {
		return nil, "", fmt.Errorf("ukuran file melebihi %d byte", maxSize)
	}
	contentType := fh.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, nil
}
