package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"iotcare-data/internal/apperr"
	"iotcare-data/internal/domain"
	"iotcare-data/internal/service"
	"iotcare-data/internal/wiring"

	"github.com/gorilla/mux"
)

// ActorHeader 发起管理操作的用户
const ActorHeader = "X-Actor-User-ID"

// users

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var in domain.UserCreateInput
	if err := bodyDecoder(r, h.maxBodyBytes)(&in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.serve(w, r, wiring.KeyUsers, http.StatusCreated, func(svc any) (any, error) {
		return svc.(service.UserService).CreateUser(r.Context(), in)
	})
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset, err := paging(q)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	req := service.ListUsersRequest{Role: q.Get("role"), Limit: limit, Offset: offset}
	h.serve(w, r, wiring.KeyUsers, http.StatusOK, func(svc any) (any, error) {
		return svc.(service.UserService).ListUsers(r.Context(), req)
	})
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]
	h.serve(w, r, wiring.KeyUsers, http.StatusOK, func(svc any) (any, error) {
		return svc.(service.UserService).GetUser(r.Context(), userID)
	})
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]
	var in domain.UserUpdateInput
	if err := bodyDecoder(r, h.maxBodyBytes)(&in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.serve(w, r, wiring.KeyUsers, http.StatusOK, func(svc any) (any, error) {
		return svc.(service.UserService).UpdateUser(r.Context(), userID, in)
	})
}

func (h *Handler) ChangeUserRole(w http.ResponseWriter, r *http.Request) {
	req := service.ChangeRoleRequest{
		ActorID:  r.Header.Get(ActorHeader),
		TargetID: mux.Vars(r)["user_id"],
	}
	if err := bodyDecoder(r, h.maxBodyBytes)(&req.Input); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.serve(w, r, wiring.KeyUsers, http.StatusOK, func(svc any) (any, error) {
		return svc.(service.UserService).ChangeRole(r.Context(), req)
	})
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	req := service.DeleteUserRequest{
		ActorID:  r.Header.Get(ActorHeader),
		TargetID: mux.Vars(r)["user_id"],
	}
	h.serve(w, r, wiring.KeyUsers, http.StatusNoContent, func(svc any) (any, error) {
		return nil, svc.(service.UserService).DeleteUser(r.Context(), req)
	})
}

func (h *Handler) ListUserDevices(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]
	h.serve(w, r, wiring.KeyUsers, http.StatusOK, func(svc any) (any, error) {
		return svc.(service.UserService).ListUserDevices(r.Context(), userID)
	})
}

// devices

func (h *Handler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	var in domain.DeviceCreateInput
	if err := bodyDecoder(r, h.maxBodyBytes)(&in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.serve(w, r, wiring.KeyDevices, http.StatusCreated, func(svc any) (any, error) {
		return svc.(service.DeviceService).RegisterDevice(r.Context(), in)
	})
}

func (h *Handler) ListDevices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset, err := paging(q)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	req := service.ListDevicesRequest{UserID: q.Get("user_id"), Limit: limit, Offset: offset}
	h.serve(w, r, wiring.KeyDevices, http.StatusOK, func(svc any) (any, error) {
		return svc.(service.DeviceService).ListDevices(r.Context(), req)
	})
}

func (h *Handler) GetDevice(w http.ResponseWriter, r *http.Request) {
	deviceID := mux.Vars(r)["device_id"]
	h.serve(w, r, wiring.KeyDevices, http.StatusOK, func(svc any) (any, error) {
		return svc.(service.DeviceService).GetDevice(r.Context(), deviceID)
	})
}

func (h *Handler) UpdateDevice(w http.ResponseWriter, r *http.Request) {
	deviceID := mux.Vars(r)["device_id"]
	var in domain.DeviceUpdateInput
	if err := bodyDecoder(r, h.maxBodyBytes)(&in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.serve(w, r, wiring.KeyDevices, http.StatusOK, func(svc any) (any, error) {
		return svc.(service.DeviceService).UpdateDevice(r.Context(), deviceID, in)
	})
}

func (h *Handler) DeleteDevice(w http.ResponseWriter, r *http.Request) {
	deviceID := mux.Vars(r)["device_id"]
	h.serve(w, r, wiring.KeyDevices, http.StatusNoContent, func(svc any) (any, error) {
		return nil, svc.(service.DeviceService).DeleteDevice(r.Context(), deviceID)
	})
}

func (h *Handler) AssignDevice(w http.ResponseWriter, r *http.Request) {
	deviceID := mux.Vars(r)["device_id"]
	var in domain.DeviceAssignInput
	if err := bodyDecoder(r, h.maxBodyBytes)(&in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.serve(w, r, wiring.KeyDevices, http.StatusOK, func(svc any) (any, error) {
		return svc.(service.DeviceService).AssignDevice(r.Context(), deviceID, in)
	})
}

func (h *Handler) UnassignDevice(w http.ResponseWriter, r *http.Request) {
	deviceID := mux.Vars(r)["device_id"]
	h.serve(w, r, wiring.KeyDevices, http.StatusOK, func(svc any) (any, error) {
		return svc.(service.DeviceService).UnassignDevice(r.Context(), deviceID)
	})
}

func (h *Handler) DeviceStatus(w http.ResponseWriter, r *http.Request) {
	deviceID := mux.Vars(r)["device_id"]
	h.serve(w, r, wiring.KeyDevices, http.StatusOK, func(svc any) (any, error) {
		return svc.(service.DeviceService).DeviceStatus(r.Context(), deviceID)
	})
}

// user profiles

func (h *Handler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]
	var in domain.UserProfileCreateInput
	if err := bodyDecoder(r, h.maxBodyBytes)(&in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.serve(w, r, wiring.KeyUserProfiles, http.StatusCreated, func(svc any) (any, error) {
		return svc.(service.UserProfileService).CreateProfile(r.Context(), userID, in)
	})
}

func (h *Handler) listProfiles(w http.ResponseWriter, r *http.Request, req service.ListProfilesRequest) {
	limit, offset, err := paging(r.URL.Query())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	req.Limit, req.Offset = limit, offset
	h.serve(w, r, wiring.KeyUserProfiles, http.StatusOK, func(svc any) (any, error) {
		return svc.(service.UserProfileService).ListProfiles(r.Context(), req)
	})
}

func (h *Handler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	h.listProfiles(w, r, service.ListProfilesRequest{})
}

func (h *Handler) ListProfilesByGender(w http.ResponseWriter, r *http.Request) {
	h.listProfiles(w, r, service.ListProfilesRequest{Gender: mux.Vars(r)["gender"]})
}

func (h *Handler) ListProfilesByAge(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	minAge, err := strconv.Atoi(vars["min_age"])
	if err != nil {
		writeError(w, r, h.logger, apperr.Parse("min_age must be an integer", err))
		return
	}
	maxAge, err := strconv.Atoi(vars["max_age"])
	if err != nil {
		writeError(w, r, h.logger, apperr.Parse("max_age must be an integer", err))
		return
	}
	h.listProfiles(w, r, service.ListProfilesRequest{MinAge: &minAge, MaxAge: &maxAge})
}

func (h *Handler) SearchMedicalHistory(w http.ResponseWriter, r *http.Request) {
	kw := strings.TrimSpace(r.URL.Query().Get("keyword"))
	if kw == "" {
		writeError(w, r, h.logger, apperr.Validation("user_profile", "keyword", "is required"))
		return
	}
	h.listProfiles(w, r, service.ListProfilesRequest{Keyword: kw})
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]
	h.serve(w, r, wiring.KeyUserProfiles, http.StatusOK, func(svc any) (any, error) {
		return svc.(service.UserProfileService).GetProfile(r.Context(), userID)
	})
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]
	var in domain.UserProfileUpdateInput
	if err := bodyDecoder(r, h.maxBodyBytes)(&in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.serve(w, r, wiring.KeyUserProfiles, http.StatusOK, func(svc any) (any, error) {
		return svc.(service.UserProfileService).UpdateProfile(r.Context(), userID, in)
	})
}

func (h *Handler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]
	h.serve(w, r, wiring.KeyUserProfiles, http.StatusNoContent, func(svc any) (any, error) {
		return nil, svc.(service.UserProfileService).DeleteProfile(r.Context(), userID)
	})
}

// user relationships

func (h *Handler) CreateRelationship(w http.ResponseWriter, r *http.Request) {
	var in domain.UserRelationshipCreateInput
	if err := bodyDecoder(r, h.maxBodyBytes)(&in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.serve(w, r, wiring.KeyUserRelationships, http.StatusCreated, func(svc any) (any, error) {
		return svc.(service.UserRelationshipService).CreateRelationship(r.Context(), in)
	})
}

func (h *Handler) ListRelationships(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := paging(r.URL.Query())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.serve(w, r, wiring.KeyUserRelationships, http.StatusOK, func(svc any) (any, error) {
		return svc.(service.UserRelationshipService).ListRelationships(r.Context(), limit, offset)
	})
}

func (h *Handler) ListRelationshipsAsSubject(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]
	h.serve(w, r, wiring.KeyUserRelationships, http.StatusOK, func(svc any) (any, error) {
		return svc.(service.UserRelationshipService).ListAsSubject(r.Context(), userID)
	})
}

func (h *Handler) ListRelationshipsAsTarget(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]
	h.serve(w, r, wiring.KeyUserRelationships, http.StatusOK, func(svc any) (any, error) {
		return svc.(service.UserRelationshipService).ListAsTarget(r.Context(), userID)
	})
}

func (h *Handler) ListRelationshipsByType(w http.ResponseWriter, r *http.Request) {
	relType := mux.Vars(r)["relationship_type"]
	h.serve(w, r, wiring.KeyUserRelationships, http.StatusOK, func(svc any) (any, error) {
		return svc.(service.UserRelationshipService).ListByType(r.Context(), relType)
	})
}

func (h *Handler) GetRelationship(w http.ResponseWriter, r *http.Request) {
	relID := mux.Vars(r)["relationship_id"]
	h.serve(w, r, wiring.KeyUserRelationships, http.StatusOK, func(svc any) (any, error) {
		return svc.(service.UserRelationshipService).GetRelationship(r.Context(), relID)
	})
}

func (h *Handler) UpdateRelationshipStatus(w http.ResponseWriter, r *http.Request) {
	relID := mux.Vars(r)["relationship_id"]
	var in domain.RelationshipStatusInput
	if err := bodyDecoder(r, h.maxBodyBytes)(&in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.serve(w, r, wiring.KeyUserRelationships, http.StatusOK, func(svc any) (any, error) {
		return svc.(service.UserRelationshipService).UpdateStatus(r.Context(), relID, in)
	})
}

func (h *Handler) DeleteRelationship(w http.ResponseWriter, r *http.Request) {
	relID := mux.Vars(r)["relationship_id"]
	h.serve(w, r, wiring.KeyUserRelationships, http.StatusNoContent, func(svc any) (any, error) {
		return nil, svc.(service.UserRelationshipService).DeleteRelationship(r.Context(), relID)
	})
}
