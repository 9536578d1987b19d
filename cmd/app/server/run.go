package server

import (
	"context"

	"github.com/stridefit/backend/internal/app"
	"github.com/stridefit/backend/internal/app/appcontext"
)

func Run() error {
	fxApp := app.New(appcontext.Declare(appcontext.EnvServer))

	if err := fxApp.Start(context.Background()); err != nil {
		return err
	}

	<-fxApp.Wait()

	return fxApp.Stop(context.Background())
}
