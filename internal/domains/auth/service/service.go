package service

import (
	"braidbook/config"
	"braidbook/infras/jwt"
	"braidbook/infras/otel"
	"braidbook/internal/domains/auth/model/dto"
	"braidbook/shared/constant"
	"braidbook/shared/failure"
	"braidbook/shared/password"
	"braidbook/shared/validator"
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

const (
	adminSubject       = "admin"
	msgInvalidPassword = "invalid password"
)

type Auth interface {
	Login(ctx context.Context, req dto.LoginRequest) (dto.LoginResponse, error)
}

type serviceImpl struct {
	cfg        *config.Config
	otel       otel.Otel
	jwtService jwt.JWT
}

func New(cfg *config.Config, otel otel.Otel, jwt jwt.JWT) Auth {
	return &serviceImpl{
		cfg:        cfg,
		otel:       otel,
		jwtService: jwt,
	}
}

// Login exchanges the shared studio password for a short-lived admin token.
func (s *serviceImpl) Login(ctx context.Context, req dto.LoginRequest) (res dto.LoginResponse, err error) {
	_, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Login")
	defer scope.End()
	defer scope.TraceIfError(&err)

	if err = validator.ValidateStruct(&req); err != nil {
		return res, err
	}

	if s.cfg.Admin.PasswordHash == "" {
		log.Warn().Msg("admin login attempted but no password hash is configured")

		return res, failure.Unauthorized(msgInvalidPassword) //nolint:wrapcheck
	}

	if err = password.Verify(req.Password, s.cfg.Admin.PasswordHash); err != nil {
		if errors.Is(err, password.ErrInvalidPassword) {
			log.Warn().Msg("admin login rejected")

			return res, failure.Unauthorized(msgInvalidPassword) //nolint:wrapcheck
		}

		log.Error().Err(err).Msg("failed to verify admin password")

		return res, fmt.Errorf("failed to verify password: %w", err)
	}

	token, err := s.jwtService.Generate(adminSubject, constant.RoleAdmin)
	if err != nil {
		log.Error().Err(err).Msg("failed to generate admin token")

		return res, fmt.Errorf("failed to generate token: %w", err)
	}

	res.FromToken(token)

	return res, nil
}
