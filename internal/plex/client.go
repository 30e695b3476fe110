// Package plex imports a user's Plex watched history. Library items are
// read through the plexgo SDK, their GUIDs resolved to TMDB ids, and the
// resulting movies fed into the watched list.
package plex

import (
	"context"
	"fmt"
	"strconv"

	"github.com/LukeHagar/plexgo"
	"github.com/LukeHagar/plexgo/models/operations"
)

// Client wraps the plexgo SDK for the read-only calls the importer needs.
type Client struct {
	clientID string
	token    string
}

// Server is a Plex media server the token can reach.
type Server struct {
	Name        string
	MachineID   string
	AccessToken string
	Owned       bool
	Connections []Connection
}

// Connection is one way to reach a server.
type Connection struct {
	Protocol string
	Address  string
	Port     int
	URI      string
	Local    bool
	Relay    bool
}

// Library is a library section on a server.
type Library struct {
	Key   int
	Title string
	Type  string
}

// Item is one movie entry in a library.
type Item struct {
	Title string
	Year  *int
	GUID  string
}

func NewClient(token string) *Client {
	return &Client{
		clientID: "watchlog-app",
		token:    token,
	}
}

// GetServers lists the media servers accessible to the token.
func (c *Client) GetServers(ctx context.Context) ([]Server, error) {
	client := plexgo.New(
		plexgo.WithSecurity(c.token),
	)

	res, err := client.Plex.GetServerResources(ctx, c.clientID,
		operations.IncludeHTTPSEnable.ToPointer(),
		operations.IncludeRelayEnable.ToPointer(),
		nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get server resources: %w", err)
	}

	var servers []Server
	for _, device := range res.PlexDevices {
		if device.Product != "Plex Media Server" {
			continue
		}

		server := Server{
			Name:        device.Name,
			MachineID:   device.ClientIdentifier,
			AccessToken: device.AccessToken,
			Owned:       device.Owned,
		}
		for _, conn := range device.Connections {
			server.Connections = append(server.Connections, Connection{
				Protocol: string(conn.Protocol),
				Address:  conn.Address,
				Port:     conn.Port,
				URI:      conn.URI,
				Local:    conn.Local,
				Relay:    conn.Relay,
			})
		}
		servers = append(servers, server)
	}

	return servers, nil
}

// GetMovieLibraries lists the movie sections on a server.
func (c *Client) GetMovieLibraries(ctx context.Context, serverURL, serverToken string) ([]Library, error) {
	client := plexgo.New(
		plexgo.WithSecurity(serverToken),
		plexgo.WithServerURL(serverURL),
	)

	res, err := client.Library.GetAllLibraries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get libraries: %w", err)
	}

	var libraries []Library
	if res.Object != nil && res.Object.MediaContainer != nil {
		for _, dir := range res.Object.MediaContainer.Directory {
			if string(dir.Type) != "movie" {
				continue
			}
			key, err := strconv.Atoi(dir.Key)
			if err != nil {
				continue
			}
			libraries = append(libraries, Library{
				Key:   key,
				Title: dir.Title,
				Type:  string(dir.Type),
			})
		}
	}

	return libraries, nil
}

// GetMovies lists the movie items in one library section.
func (c *Client) GetMovies(ctx context.Context, serverURL, serverToken string, libraryKey int) ([]Item, error) {
	client := plexgo.New(
		plexgo.WithSecurity(serverToken),
		plexgo.WithServerURL(serverURL),
	)

	res, err := client.Library.GetLibraryItems(ctx, operations.GetLibraryItemsRequest{
		SectionKey: libraryKey,
		Tag:        operations.Tag("all"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get library items: %w", err)
	}

	var items []Item
	if res.Object != nil && res.Object.MediaContainer != nil {
		for _, metadata := range res.Object.MediaContainer.Metadata {
			if metadata.Type != operations.GetLibraryItemsLibraryTypeMovie {
				continue
			}
			items = append(items, Item{
				Title: metadata.Title,
				Year:  metadata.Year,
				GUID:  metadata.GUID,
			})
		}
	}

	return items, nil
}

// BestConnection prefers external non-relay connections, then local, then
// whatever is left.
func BestConnection(server Server) *Connection {
	for i, conn := range server.Connections {
		if !conn.Local && !conn.Relay {
			return &server.Connections[i]
		}
	}
	for i, conn := range server.Connections {
		if conn.Local {
			return &server.Connections[i]
		}
	}
	if len(server.Connections) > 0 {
		return &server.Connections[0]
	}
	return nil
}

// ServerURL builds an addressable URL from a connection.
func ServerURL(conn Connection) string {
	if conn.URI != "" {
		return conn.URI
	}
	return fmt.Sprintf("%s://%s:%d", conn.Protocol, conn.Address, conn.Port)
}
