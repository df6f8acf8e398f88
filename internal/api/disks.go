package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/dlnode/dlnode/internal/api/models"
	"github.com/dlnode/dlnode/internal/disks"
)

// registerDiskRoutes registers block device inspection and mount helpers.
func (s *Server) registerDiskRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-block-devices",
		Method:      http.MethodGet,
		Path:        "/api/lsblk",
		Summary:     "List Block Devices",
		Description: "Raw lsblk output for the disk panel",
		Tags:        []string{"disks"},
		Errors:      []int{500},
	}, func(ctx context.Context, _ *struct{}) (*models.DiskTextResponse, error) {
		out, err := s.options.Disks.Lsblk(ctx)
		if err != nil {
			return nil, huma.Error500InternalServerError(err.Error())
		}
		return &models.DiskTextResponse{
			Body: models.DiskTextData{OK: true, Output: out},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "disk-free",
		Method:      http.MethodGet,
		Path:        "/api/df",
		Summary:     "Disk Free",
		Description: "Raw df -hT output",
		Tags:        []string{"disks"},
		Errors:      []int{500},
	}, func(ctx context.Context, _ *struct{}) (*models.DiskTextResponse, error) {
		out, err := s.options.Disks.DiskFree(ctx)
		if err != nil {
			return nil, huma.Error500InternalServerError(err.Error())
		}
		return &models.DiskTextResponse{
			Body: models.DiskTextData{OK: true, Output: out},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "list-destinations",
		Method:      http.MethodGet,
		Path:        "/api/list_destinations",
		Summary:     "List Destinations",
		Description: "Candidate download directories under the configured search bases",
		Tags:        []string{"disks"},
	}, func(_ context.Context, _ *struct{}) (*models.DestinationsResponse, error) {
		return &models.DestinationsResponse{
			Body: models.DestinationsData{Paths: s.options.Disks.Destinations()},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "mount-device",
		Method:      http.MethodPost,
		Path:        "/api/mount",
		Summary:     "Mount Device",
		Description: "Create the mountpoint if needed and mount the device via sudo",
		Tags:        []string{"disks"},
		Errors:      []int{422, 500},
	}, func(ctx context.Context, input *models.MountRequest) (*models.MountResponse, error) {
		out, err := s.options.Disks.Mount(ctx, input.Body.Device, input.Body.Mountpoint)
		if err != nil {
			return nil, mapDiskError(out, err)
		}
		return &models.MountResponse{
			Body: models.MountData{OK: true, Output: out},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "unmount-device",
		Method:      http.MethodPost,
		Path:        "/api/umount",
		Summary:     "Unmount Device",
		Description: "Unmount the device or mountpoint via sudo",
		Tags:        []string{"disks"},
		Errors:      []int{422, 500},
	}, func(ctx context.Context, input *models.UmountRequest) (*models.MountResponse, error) {
		out, err := s.options.Disks.Umount(ctx, input.Body.Target)
		if err != nil {
			return nil, mapDiskError(out, err)
		}
		return &models.MountResponse{
			Body: models.MountData{OK: true, Output: out},
		}, nil
	})
}

// mapDiskError relays a failed mount command's output and exit code.
func mapDiskError(_ string, err error) error {
	var cmdErr *disks.CommandError
	if errors.As(err, &cmdErr) {
		return huma.Error500InternalServerError(err.Error(), &huma.ErrorDetail{
			Location: "output",
			Message:  cmdErr.Output,
			Value:    cmdErr.Code,
		})
	}
	return huma.Error500InternalServerError(err.Error())
}
