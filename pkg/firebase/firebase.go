package firebase

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/onsil/backend/pkg/logger"
	"google.golang.org/api/option"
)

// App holds the initialized Firebase app and the clients built from it
type App struct {
	FirebaseApp *firebase.App
	AuthClient  *auth.Client
}

// InitFirebase initializes the Firebase application and authentication client
func InitFirebase(ctx context.Context, credentialsPath string) (*App, error) {
	if credentialsPath == "" {
		return nil, fmt.Errorf("firebase credentials path not provided")
	}

	// Check if the credentials file exists
	if _, err := os.Stat(credentialsPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("firebase credentials file not found at %s", credentialsPath)
	}

	opt := option.WithCredentialsFile(credentialsPath)

	firebaseApp, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase auth client: %w", err)
	}

	logger.Log.Info("Firebase app and auth client initialized")
	return &App{FirebaseApp: firebaseApp, AuthClient: authClient}, nil
}

// Bucket returns a handle on the named Cloud Storage bucket of the project
func (a *App) Bucket(ctx context.Context, name string) (*storage.BucketHandle, error) {
	client, err := a.FirebaseApp.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase storage client: %w", err)
	}
	bucket, err := client.Bucket(name)
	if err != nil {
		return nil, fmt.Errorf("error opening bucket %s: %w", name, err)
	}
	return bucket, nil
}
