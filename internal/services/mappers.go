package services

import (
	"hardware-request-system/internal/dto"
	"hardware-request-system/internal/entities"
	"hardware-request-system/pkg/utils"
)

func userToPublicDTO(u *entities.User) dto.UserPublicDTO {
	return dto.UserPublicDTO{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

func hardwareToDTO(hw entities.Hardware) dto.HardwareDTO {
	return dto.HardwareDTO{
		ID:          hw.ID,
		Name:        hw.Name,
		Type:        hw.Type,
		Description: utils.NullStringPtr(hw.Description),
		QRCode:      hw.QRCode,
		Available:   hw.Available,
		CreatedAt:   hw.CreatedAt,
	}
}

func requestToDTO(req entities.Request) dto.RequestDTO {
	return dto.RequestDTO{
		ID:          req.ID,
		EmployeeID:  req.EmployeeID,
		HardwareID:  req.HardwareID,
		Description: req.Description,
		Duration:    req.Duration,
		EndDate:     utils.NullTimePtr(req.EndDate),
		Status:      req.Status,
		CreatedAt:   req.CreatedAt,
		UpdatedAt:   req.UpdatedAt,
	}
}

func requestDetailsToDTO(d entities.RequestDetails) dto.RequestDTO {
	out := requestToDTO(d.Request)
	out.Employee = &dto.ShortUserDTO{ID: d.EmployeeID, Name: d.EmployeeName, Email: d.EmployeeEmail}
	// До выдачи заявка может ссылаться на оборудование, которого нет в учёте.
	if d.HardwareQRCode != "" {
		out.Hardware = &dto.ShortHardwareDTO{ID: d.HardwareID, Name: d.HardwareName, Type: d.HardwareType, QRCode: d.HardwareQRCode}
	}
	return out
}

func historyToDTO(h entities.RequestHistory) dto.RequestHistoryDTO {
	return dto.RequestHistoryDTO{
		ID:         h.ID,
		RequestID:  h.RequestID,
		EventType:  h.EventType,
		OldStatus:  utils.NullStringPtr(h.OldStatus),
		NewStatus:  utils.NullStringPtr(h.NewStatus),
		HardwareID: utils.NullUint64Ptr(h.HardwareID),
		Actor:      h.ActorName,
		ActorID:    h.ActorID,
		CreatedAt:  h.CreatedAt,
	}
}
