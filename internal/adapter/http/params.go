package http

import (
	"errors"
	"strconv"
	"strings"

	"loanshare/internal/adapter/middleware"

	"github.com/ethereum/go-ethereum/common"
	"github.com/labstack/echo/v4"
)

var (
	errMissingCaller = errors.New("missing or invalid X-Caller")
	errBadAddress    = errors.New("invalid address")
)

// callerFrom returns the acting party named by the X-Caller header.
func callerFrom(c echo.Context) (common.Address, error) {
	raw := strings.TrimSpace(c.Request().Header.Get(middleware.HeaderCaller))
	if !common.IsHexAddress(raw) {
		return common.Address{}, errMissingCaller
	}
	return common.HexToAddress(raw), nil
}

func addrParam(c echo.Context, name string) (common.Address, error) {
	raw := c.Param(name)
	if !common.IsHexAddress(raw) {
		return common.Address{}, errBadAddress
	}
	return common.HexToAddress(raw), nil
}

func uintParam(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}
